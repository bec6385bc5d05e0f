// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package tracker maintains sliding-window rate statistics per
// monitored port. It is the statistical base read by the detection
// engine.
package tracker

import (
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"dosguard/common/reporter"
	"dosguard/monitor/schema"
)

// Component implements the rate window tracker.
type Component struct {
	r      *reporter.Reporter
	config Configuration
	clock  clock.Clock

	mu        sync.RWMutex
	windows   map[uint16]*portWindow
	monitored map[uint16]struct{}
	metrics   metrics
}

type sample struct {
	src    netip.Addr
	ts     time.Time
	weight uint64
}

// portWindow holds the recent samples for one port. It is owned by the
// tracker and never shared across ports.
type portWindow struct {
	mu      sync.Mutex
	samples []sample
}

// Snapshot aggregates the live samples of one port.
type Snapshot struct {
	// TotalObserved is the weighted count of events in the window.
	TotalObserved uint64
	// UniqueIPs is the number of distinct source addresses in the window.
	UniqueIPs int
	// PerIP maps each source address to its weighted count.
	PerIP map[netip.Addr]uint64
}

// New creates a new rate window tracker.
func New(r *reporter.Reporter, config Configuration) (*Component, error) {
	c := &Component{
		r:      r,
		config: config,
		clock:  clock.New(),

		windows:   make(map[uint16]*portWindow),
		monitored: make(map[uint16]struct{}, len(config.Ports)),
	}
	for _, port := range config.Ports {
		c.monitored[port] = struct{}{}
	}
	c.initMetrics()
	return c, nil
}

// Monitored tells if a port is in the monitored set.
func (c *Component) Monitored(port uint16) bool {
	_, ok := c.monitored[port]
	return ok
}

// Ports returns the monitored ports.
func (c *Component) Ports() []uint16 {
	return c.config.Ports
}

// Window returns the time span over which rates are measured.
func (c *Component) Window() time.Duration {
	return c.config.Window
}

// Record appends an event to the window of its destination port. Events
// for unmonitored ports are ignored.
func (c *Component) Record(event schema.TrafficEvent) {
	if _, ok := c.monitored[event.DstPort]; !ok {
		c.metrics.ignored.Inc()
		return
	}
	w := c.window(event.DstPort)
	now := c.clock.Now()
	w.mu.Lock()
	w.evict(now.Add(-c.config.Window))
	w.samples = append(w.samples, sample{
		src:    event.SrcAddr,
		ts:     event.Timestamp,
		weight: event.Weight,
	})
	w.mu.Unlock()
	c.metrics.events.WithLabelValues(strconv.Itoa(int(event.DstPort))).Inc()
}

// Snapshot computes the current aggregates for a port over samples not
// older than the window span.
func (c *Component) Snapshot(port uint16) Snapshot {
	w := c.window(port)
	now := c.clock.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(now.Add(-c.config.Window))
	snapshot := Snapshot{PerIP: make(map[netip.Addr]uint64)}
	for _, s := range w.samples {
		snapshot.TotalObserved += s.weight
		snapshot.PerIP[s.src] += s.weight
	}
	snapshot.UniqueIPs = len(snapshot.PerIP)
	return snapshot
}

// window returns the window for a port, creating it lazily.
func (c *Component) window(port uint16) *portWindow {
	c.mu.RLock()
	w := c.windows[port]
	c.mu.RUnlock()
	if w != nil {
		return w
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if w = c.windows[port]; w == nil {
		w = &portWindow{}
		c.windows[port] = w
	}
	return w
}

// evict drops samples strictly older than the horizon. Samples are
// appended in arrival order which may differ from timestamp order, so
// the whole slice is scanned and compacted in place.
func (w *portWindow) evict(horizon time.Time) {
	kept := w.samples[:0]
	for _, s := range w.samples {
		if !s.ts.Before(horizon) {
			kept = append(kept, s)
		}
	}
	w.samples = kept
}
