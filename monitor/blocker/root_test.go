// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"dosguard/common/helpers"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/effector"
)

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestBlockIdempotent(t *testing.T) {
	r := reporter.NewMock(t)
	c, _, e, a := NewMock(t, r, DefaultConfiguration())
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	ip := netip.MustParseAddr("203.0.113.10")
	c.Block(ip, "flood")
	c.Block(ip, "flood")

	expected := []effector.MockCall{{Kind: "block-ip", IP: ip}}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}

	got := <-events
	if got.Kind != "ip-blocked" {
		t.Errorf("first event: got %s, expected ip-blocked", got.Kind)
	}
	select {
	case got := <-events:
		t.Fatalf("unexpected second event %s", got.Kind)
	default:
	}

	blocked := c.BlockedIPs()
	if len(blocked) != 1 || blocked[0].IP != ip || !blocked[0].Applied {
		t.Fatalf("BlockedIPs(): unexpected %+v", blocked)
	}
}

func TestWhitelistNeverBlocked(t *testing.T) {
	r := reporter.NewMock(t)
	c, _, e, a := NewMock(t, r, DefaultConfiguration())
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	ip := netip.MustParseAddr("127.0.0.1")
	c.Block(ip, "flood")

	if calls := e.Calls(); len(calls) != 0 {
		t.Fatalf("Calls(): got %+v, expected none", calls)
	}
	got := <-events
	if got.Kind != "block-suppressed" || got.Severity != alert.SeverityInfo {
		t.Errorf("event: got %s/%s, expected block-suppressed/info", got.Kind, got.Severity)
	}
	if len(c.BlockedIPs()) != 0 {
		t.Error("BlockedIPs(): should be empty")
	}

	gotMetrics := r.GetMetrics("dosguard_monitor_blocker_", "suppressed_")
	expectedMetrics := map[string]string{
		`suppressed_blocks_total`: "1",
	}
	if diff := helpers.Diff(gotMetrics, expectedMetrics); diff != "" {
		t.Fatalf("Metrics (-got, +want):\n%s", diff)
	}
}

func TestTimedUnblock(t *testing.T) {
	r := reporter.NewMock(t)
	config := DefaultConfiguration()
	config.UnblockDelay = 300 * time.Second
	c, mock, e, _ := NewMock(t, r, config)

	ip := netip.MustParseAddr("10.0.0.5")
	c.Block(ip, "flood")

	mock.Add(299 * time.Second)
	if len(c.BlockedIPs()) != 1 {
		t.Fatal("BlockedIPs() at t+299s: address should still be blocked")
	}

	mock.Add(2 * time.Second)
	waitFor(t, "timed unblock", func() bool { return len(c.BlockedIPs()) == 0 })
	expected := []effector.MockCall{
		{Kind: "block-ip", IP: ip},
		{Kind: "unblock-ip", IP: ip},
	}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}
}

func TestManualUnblockCancelsTimer(t *testing.T) {
	r := reporter.NewMock(t)
	config := DefaultConfiguration()
	config.UnblockDelay = 300 * time.Second
	c, mock, e, _ := NewMock(t, r, config)

	ip := netip.MustParseAddr("10.0.0.5")
	c.Block(ip, "flood")
	mock.Add(10 * time.Second)
	if !c.Unblock(ip) {
		t.Fatal("Unblock(): address should have been blocked")
	}
	if c.Unblock(ip) {
		t.Fatal("Unblock(): address should not be blocked anymore")
	}

	// Re-block, then move past the original deadline: the stale
	// timer must not unblock the new entry.
	c.Block(ip, "flood again")
	mock.Add(291 * time.Second)
	if len(c.BlockedIPs()) != 1 {
		t.Fatal("BlockedIPs(): address should still be blocked")
	}

	expected := []effector.MockCall{
		{Kind: "block-ip", IP: ip},
		{Kind: "unblock-ip", IP: ip},
		{Kind: "block-ip", IP: ip},
	}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}
}

func TestEffectorFailureRetry(t *testing.T) {
	r := reporter.NewMock(t)
	config := DefaultConfiguration()
	config.UnblockDelay = 0
	c, mock, e, a := NewMock(t, r, config)
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	e.Fail["block-ip"] = errors.New("iptables gone")
	ip := netip.MustParseAddr("198.51.100.7")
	c.Block(ip, "flood")

	// Intent is retained even though the effector failed.
	blocked := c.BlockedIPs()
	if len(blocked) != 1 || blocked[0].Applied {
		t.Fatalf("BlockedIPs(): unexpected %+v", blocked)
	}
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		event := <-events
		seen[event.Kind] = true
	}
	if !seen["ip-blocked"] || !seen["block-failed"] {
		t.Fatalf("events: got %v, expected ip-blocked and block-failed", seen)
	}

	// Heal the effector: the reconcile loop applies the block.
	delete(e.Fail, "block-ip")
	waitFor(t, "reconciliation", func() bool {
		mock.Add(2 * time.Second)
		blocked := c.BlockedIPs()
		return len(blocked) == 1 && blocked[0].Applied
	})
	expected := []effector.MockCall{{Kind: "block-ip", IP: ip}}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}
}

func TestTogglePort(t *testing.T) {
	r := reporter.NewMock(t)
	c, _, e, a := NewMock(t, r, DefaultConfiguration())
	events, unsubscribe := a.Subscribe("test")
	defer unsubscribe()

	blocked, err := c.TogglePort(8080)
	if err != nil || !blocked {
		t.Fatalf("TogglePort(): got %v/%v, expected true/nil", blocked, err)
	}
	if !c.PortBlocked(8080) {
		t.Fatal("PortBlocked(8080): should be true")
	}
	blocked, err = c.TogglePort(8080)
	if err != nil || blocked {
		t.Fatalf("TogglePort(): got %v/%v, expected false/nil", blocked, err)
	}

	expected := []effector.MockCall{
		{Kind: "block-port", Port: 8080},
		{Kind: "unblock-port", Port: 8080},
	}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}

	// Setting the current state again emits a refresh event without
	// touching the effector.
	if err := c.SetPort(8080, false); err != nil {
		t.Fatalf("SetPort() error:\n%+v", err)
	}
	if diff := helpers.Diff(e.Calls(), expected); diff != "" {
		t.Fatalf("Calls() after no-op (-got, +want):\n%s", diff)
	}
	kinds := []string{}
	for i := 0; i < 3; i++ {
		event := <-events
		kinds = append(kinds, event.Kind)
	}
	expectedKinds := []string{"port-blocked", "port-unblocked", "port-status"}
	if diff := helpers.Diff(kinds, expectedKinds); diff != "" {
		t.Fatalf("events (-got, +want):\n%s", diff)
	}
}
