// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import (
	"fmt"
	"net/netip"
	"testing"
	"time"

	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/blocker"
	"dosguard/monitor/schema"
	"dosguard/monitor/status"
	"dosguard/monitor/tracker"
)

func waitForKind(t *testing.T, events <-chan alert.Event, kind string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case event := <-events:
			if event.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event", kind)
		}
	}
}

func drain(events <-chan alert.Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func TestAttackLifecycle(t *testing.T) {
	r := reporter.NewMock(t)
	a, _ := alert.NewMock(t, r)
	st, err := status.New(r, status.Dependencies{})
	if err != nil {
		t.Fatalf("status.New() error:\n%+v", err)
	}
	trackerConfig := tracker.DefaultConfiguration()
	trackerConfig.Window = 10 * time.Second
	trackerConfig.Ports = []uint16{80}
	track, trackClock := tracker.NewMock(t, r, trackerConfig)
	b, _, effectorMock, _ := blocker.NewMock(t, r, blocker.DefaultConfiguration())

	config := DefaultConfiguration()
	config.Thresholds = map[uint16]ThresholdConfiguration{
		80: {MaxRequests: 100, Critical: true},
	}
	c, _ := NewMock(t, r, config, Dependencies{
		Tracker: track,
		Blocker: b,
		Alert:   a,
		Status:  st,
	})
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	// 150 events from distinct sources within 2 seconds.
	for i := 0; i < 150; i++ {
		if i == 75 {
			trackClock.Add(2 * time.Second)
		}
		track.Record(schema.TrafficEvent{
			SrcAddr:   netip.MustParseAddr(fmt.Sprintf("203.0.113.%d", i%250)),
			DstPort:   80,
			Timestamp: trackClock.Now(),
			Weight:    1,
		})
	}
	c.evaluateAll()

	waitForKind(t, events, "attack-detected")
	portStatus, _ := st.Get(80)
	if portStatus.State != status.PortUnderAttack {
		t.Fatalf("Get(80).State: got %s, expected %s", portStatus.State, status.PortUnderAttack)
	}
	if portStatus.TotalObserved != 150 {
		t.Errorf("Get(80).TotalObserved: got %d, expected 150", portStatus.TotalObserved)
	}
	if got := len(effectorMock.Calls()); got != config.TopN {
		t.Errorf("effector calls: got %d, expected %d", got, config.TopN)
	}

	// A sustained breach does not re-emit.
	c.evaluateAll()
	c.evaluateAll()
	drain(events)

	// After the window empties, one calm cycle reverts the port.
	trackClock.Add(11 * time.Second)
	c.evaluateAll()
	waitForKind(t, events, "attack-ended")
	portStatus, _ = st.Get(80)
	if portStatus.State != status.PortOpen {
		t.Fatalf("Get(80).State: got %s, expected %s", portStatus.State, status.PortOpen)
	}

	gotMetric := r.GetMetrics("dosguard_monitor_detection_", "attacks_")
	if gotMetric["attacks_detected_total"] != "1" {
		t.Errorf("attacks_detected_total: got %s, expected 1", gotMetric["attacks_detected_total"])
	}
}

func TestWhitelistedOffender(t *testing.T) {
	r := reporter.NewMock(t)
	a, _ := alert.NewMock(t, r)
	trackerConfig := tracker.DefaultConfiguration()
	trackerConfig.Ports = []uint16{80}
	track, trackClock := tracker.NewMock(t, r, trackerConfig)
	b, _, effectorMock, _ := blocker.NewMock(t, r, blocker.DefaultConfiguration())

	config := DefaultConfiguration()
	config.Granularity = "ip"
	config.Thresholds = map[uint16]ThresholdConfiguration{
		80: {MaxRequests: 100},
	}
	c, _ := NewMock(t, r, config, Dependencies{
		Tracker: track,
		Blocker: b,
		Alert:   a,
	})
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	for i := 0; i < 150; i++ {
		track.Record(schema.TrafficEvent{
			SrcAddr:   netip.MustParseAddr("127.0.0.1"),
			DstPort:   80,
			Timestamp: trackClock.Now(),
			Weight:    1,
		})
	}
	c.evaluateAll()

	waitForKind(t, events, "attack-detected")
	// The attack is reported but the whitelisted source is never
	// passed to the effector.
	if calls := effectorMock.Calls(); len(calls) != 0 {
		t.Fatalf("effector calls: got %+v, expected none", calls)
	}
}

func TestMissingThreshold(t *testing.T) {
	r := reporter.NewMock(t)
	trackerConfig := tracker.DefaultConfiguration()
	trackerConfig.Ports = []uint16{80, 443}
	track, _ := tracker.NewMock(t, r, trackerConfig)

	config := DefaultConfiguration()
	config.Thresholds = map[uint16]ThresholdConfiguration{
		80: {MaxRequests: 100},
	}
	if _, err := New(r, config, Dependencies{Tracker: track}); err == nil {
		t.Fatal("New() did not error on missing threshold")
	}
}
