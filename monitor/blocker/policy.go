// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import (
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"dosguard/monitor/alert"
)

// entry is the state of one blocked address. Fields are guarded by the
// component mutex; busy serializes effector calls for this address.
type entry struct {
	ip        netip.Addr
	blockedAt time.Time
	unblockAt time.Time // zero when only a manual unblock applies
	reason    string

	// desired is the administrative intent, applied the last
	// confirmed OS-level state. The reconcile loop converges the
	// two.
	desired bool
	applied bool
	// version invalidates pending unblock timers on unblock or
	// re-block.
	version   uint64
	timer     *clock.Timer
	retry     backoff.BackOff
	nextRetry time.Time

	busy sync.Mutex
}

// BlockedEntry is the externally visible state of one blocked address.
type BlockedEntry struct {
	IP        netip.Addr `json:"ip"`
	BlockedAt time.Time  `json:"blocked-at"`
	UnblockAt time.Time  `json:"unblock-at,omitempty"`
	Reason    string     `json:"reason"`
	// Applied tells if the OS-level rule has been confirmed.
	Applied bool `json:"applied"`
}

// Block blocks an address. Whitelisted addresses are never blocked,
// only reported. Blocking an already-blocked address is a no-op.
func (c *Component) Block(ip netip.Addr, reason string) {
	if c.Whitelisted(ip) {
		c.metrics.suppressed.Inc()
		c.d.Alert.Publish(alert.Event{
			Severity: alert.SeverityInfo,
			IP:       ip,
			Kind:     "block-suppressed",
			Message:  fmt.Sprintf("block of whitelisted address %s suppressed (%s)", ip, reason),
		})
		return
	}
	now := c.clock.Now()
	c.mu.Lock()
	e, ok := c.entries[ip]
	if ok && e.desired {
		c.mu.Unlock()
		return
	}
	if !ok {
		e = &entry{ip: ip, retry: c.newRetry()}
		c.entries[ip] = e
	}
	// Re-blocking an address pending unblock reuses the entry: the
	// version bump turns the old timer into a no-op.
	e.version++
	e.desired = true
	e.blockedAt = now
	e.unblockAt = time.Time{}
	e.reason = reason
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if c.config.UnblockDelay > 0 {
		e.unblockAt = now.Add(c.config.UnblockDelay)
		version := e.version
		e.timer = c.clock.AfterFunc(c.config.UnblockDelay, func() {
			c.expire(ip, version)
		})
	}
	c.mu.Unlock()
	c.metrics.blocks.Inc()
	c.d.Alert.Publish(alert.Event{
		Severity: alert.SeverityWarning,
		IP:       ip,
		Kind:     "ip-blocked",
		Message:  fmt.Sprintf("address %s blocked (%s)", ip, reason),
	})
	c.apply(e)
}

// Unblock removes the block on an address. It cancels any pending
// unblock timer. It reports whether the address was blocked.
func (c *Component) Unblock(ip netip.Addr) bool {
	c.mu.Lock()
	e, ok := c.entries[ip]
	if !ok || !e.desired {
		c.mu.Unlock()
		return false
	}
	e.version++
	e.desired = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	c.mu.Unlock()
	c.metrics.unblocks.WithLabelValues("manual").Inc()
	c.d.Alert.Publish(alert.Event{
		Severity: alert.SeverityInfo,
		IP:       ip,
		Kind:     "ip-unblocked",
		Message:  fmt.Sprintf("address %s unblocked manually", ip),
	})
	c.apply(e)
	return true
}

// expire handles an unblock timer firing. A stale timer, cancelled or
// superseded by a re-block, is a benign no-op.
func (c *Component) expire(ip netip.Addr, version uint64) {
	c.mu.Lock()
	e, ok := c.entries[ip]
	if !ok || e.version != version || !e.desired {
		c.mu.Unlock()
		return
	}
	e.desired = false
	e.timer = nil
	c.mu.Unlock()
	c.metrics.unblocks.WithLabelValues("timeout").Inc()
	c.d.Alert.Publish(alert.Event{
		Severity: alert.SeverityInfo,
		IP:       ip,
		Kind:     "ip-unblocked",
		Message:  fmt.Sprintf("address %s unblocked after %s", ip, c.config.UnblockDelay),
	})
	c.apply(e)
}

// BlockedIPs returns the currently blocked addresses, sorted.
func (c *Component) BlockedIPs() []BlockedEntry {
	c.mu.Lock()
	blocked := make([]BlockedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.desired {
			continue
		}
		blocked = append(blocked, BlockedEntry{
			IP:        e.ip,
			BlockedAt: e.blockedAt,
			UnblockAt: e.unblockAt,
			Reason:    e.reason,
			Applied:   e.applied,
		})
	}
	c.mu.Unlock()
	sort.Slice(blocked, func(i, j int) bool {
		return blocked[i].IP.Less(blocked[j].IP)
	})
	return blocked
}

// SetPort sets the administrative state of a port. Setting a port to
// its current state is a no-op which still emits a status refresh
// event.
func (c *Component) SetPort(port uint16, blocked bool) error {
	c.mu.Lock()
	current := c.blockedPorts[port]
	if current == blocked {
		c.mu.Unlock()
		c.d.Alert.Publish(alert.Event{
			Severity: alert.SeverityInfo,
			Port:     port,
			Kind:     "port-status",
			Message:  fmt.Sprintf("port %d administrative state unchanged", port),
		})
		return nil
	}
	c.blockedPorts[port] = blocked
	c.mu.Unlock()

	now := c.clock.Now()
	ctx := c.t.Context(nil)
	var err error
	kind, message := "port-unblocked", fmt.Sprintf("port %d administratively unblocked", port)
	if blocked {
		kind, message = "port-blocked", fmt.Sprintf("port %d administratively blocked", port)
		err = c.d.Effector.BlockPort(ctx, port)
	} else {
		err = c.d.Effector.UnblockPort(ctx, port)
	}
	if err != nil {
		c.metrics.effectorErrors.WithLabelValues(kind).Inc()
		c.d.Alert.Publish(alert.Event{
			Severity: alert.SeverityError,
			Port:     port,
			Kind:     kind + "-failed",
			Message:  fmt.Sprintf("effector failure on port %d: %s", port, err),
		})
	}
	if c.d.Status != nil {
		c.d.Status.SetAdminBlocked(port, blocked, now)
	}
	c.d.Alert.Publish(alert.Event{
		Severity: alert.SeverityWarning,
		Port:     port,
		Kind:     kind,
		Message:  message,
	})
	return err
}

// TogglePort flips the administrative state of a port and returns the
// new state.
func (c *Component) TogglePort(port uint16) (bool, error) {
	c.mu.Lock()
	blocked := !c.blockedPorts[port]
	c.mu.Unlock()
	return blocked, c.SetPort(port, blocked)
}

// PortBlocked tells if a port is administratively blocked.
func (c *Component) PortBlocked(port uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockedPorts[port]
}
