// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import (
	"net/netip"
	"testing"
	"time"

	"dosguard/common/helpers"
	"dosguard/monitor/tracker"
)

func TestThresholdDetectorPortGranularity(t *testing.T) {
	d := &thresholdDetector{
		granularity: "port",
		topN:        2,
		thresholds:  map[uint16]ThresholdConfiguration{80: {MaxRequests: 10}},
		window:      10 * time.Second,
	}

	ip1 := netip.MustParseAddr("192.0.2.1")
	ip2 := netip.MustParseAddr("192.0.2.2")
	ip3 := netip.MustParseAddr("192.0.2.3")

	// At the threshold, not strictly over: no verdict.
	got := d.Evaluate(80, tracker.Snapshot{
		TotalObserved: 10,
		UniqueIPs:     1,
		PerIP:         map[netip.Addr]uint64{ip1: 10},
	})
	if got.UnderAttack {
		t.Error("Evaluate() at threshold: should not be under attack")
	}

	got = d.Evaluate(80, tracker.Snapshot{
		TotalObserved: 15,
		UniqueIPs:     3,
		PerIP:         map[netip.Addr]uint64{ip1: 3, ip2: 7, ip3: 5},
	})
	if !got.UnderAttack {
		t.Fatal("Evaluate() over threshold: should be under attack")
	}
	expected := []netip.Addr{ip2, ip3}
	if diff := helpers.Diff(got.Offenders, expected); diff != "" {
		t.Fatalf("Evaluate() offenders (-got, +want):\n%s", diff)
	}

	// Unknown port: no verdict.
	got = d.Evaluate(443, tracker.Snapshot{TotalObserved: 1000})
	if got.UnderAttack {
		t.Error("Evaluate() on unknown port: should not be under attack")
	}
}

func TestThresholdDetectorIPGranularity(t *testing.T) {
	d := &thresholdDetector{
		granularity: "ip",
		topN:        3,
		thresholds:  map[uint16]ThresholdConfiguration{80: {MaxRequests: 10}},
		window:      10 * time.Second,
	}

	ip1 := netip.MustParseAddr("192.0.2.1")
	ip2 := netip.MustParseAddr("192.0.2.2")

	// High aggregate from many modest sources: not an attack at this
	// granularity.
	perIP := map[netip.Addr]uint64{}
	for i := 0; i < 20; i++ {
		perIP[netip.AddrFrom4([4]byte{203, 0, 113, byte(i)})] = 5
	}
	got := d.Evaluate(80, tracker.Snapshot{TotalObserved: 100, UniqueIPs: 20, PerIP: perIP})
	if got.UnderAttack {
		t.Error("Evaluate() with modest sources: should not be under attack")
	}

	got = d.Evaluate(80, tracker.Snapshot{
		TotalObserved: 30,
		UniqueIPs:     2,
		PerIP:         map[netip.Addr]uint64{ip1: 25, ip2: 5},
	})
	if !got.UnderAttack {
		t.Fatal("Evaluate() with one abusive source: should be under attack")
	}
	expected := []netip.Addr{ip1}
	if diff := helpers.Diff(got.Offenders, expected); diff != "" {
		t.Fatalf("Evaluate() offenders (-got, +want):\n%s", diff)
	}
}

func TestAnomalyDetector(t *testing.T) {
	d := &anomalyDetector{zScore: 3, minSources: 10}

	// Uniform traffic: nothing to flag.
	perIP := map[netip.Addr]uint64{}
	for i := 0; i < 20; i++ {
		perIP[netip.AddrFrom4([4]byte{203, 0, 113, byte(i)})] = 5
	}
	got := d.Evaluate(80, tracker.Snapshot{TotalObserved: 100, UniqueIPs: 20, PerIP: perIP})
	if got.UnderAttack {
		t.Error("Evaluate() on uniform traffic: should not be under attack")
	}

	// One source far above its peers.
	perIP[netip.MustParseAddr("198.51.100.1")] = 200
	got = d.Evaluate(80, tracker.Snapshot{TotalObserved: 300, UniqueIPs: 21, PerIP: perIP})
	if !got.UnderAttack {
		t.Error("Evaluate() with one outlier: should be under attack")
	}

	// Too few sources for meaningful statistics.
	got = d.Evaluate(80, tracker.Snapshot{
		TotalObserved: 205,
		UniqueIPs:     2,
		PerIP: map[netip.Addr]uint64{
			netip.MustParseAddr("198.51.100.1"): 200,
			netip.MustParseAddr("198.51.100.2"): 5,
		},
	})
	if got.UnderAttack {
		t.Error("Evaluate() with too few sources: should not be under attack")
	}
}
