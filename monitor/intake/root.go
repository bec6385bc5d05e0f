// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package intake normalizes traffic observations from external
// producers and feeds them to the rate window tracker. The producer
// path is a bounded enqueue: it never blocks, events in excess are
// dropped and counted.
package intake

import (
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
	"gopkg.in/tomb.v2"

	"dosguard/common/daemon"
	"dosguard/common/httpserver"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/schema"
	"dosguard/monitor/tracker"
)

// Component implements the traffic event intake.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration
	clock  clock.Clock

	queue       chan schema.TrafficEvent
	overflowLog reporter.Logger

	// limiterMu guards limiters, pruned periodically to bound its
	// size under address churn.
	limiterMu sync.Mutex
	limiters  map[netip.Addr]*rate.Limiter

	alertMu      sync.Mutex
	lastOverflow time.Time

	metrics metrics
}

// Dependencies define the dependencies of the traffic event intake.
type Dependencies struct {
	Daemon  daemon.Component
	HTTP    *httpserver.Component
	Tracker *tracker.Component
	Alert   *alert.Component
}

// New creates a new traffic event intake.
func New(r *reporter.Reporter, config Configuration, deps Dependencies) (*Component, error) {
	c := &Component{
		r:      r,
		d:      &deps,
		config: config,
		clock:  clock.New(),

		queue:    make(chan schema.TrafficEvent, config.QueueSize),
		limiters: make(map[netip.Addr]*rate.Limiter),
	}
	c.overflowLog = c.r.Sample(reporter.BurstSampler(time.Minute, 1))
	c.initMetrics()
	c.d.Daemon.Track(&c.t, "monitor/intake")
	if c.d.HTTP != nil {
		c.d.HTTP.GinRouter.POST("/api/v0/ingest", c.ingestHandlerFunc)
	}
	return c, nil
}

// Start starts the workers of the traffic event intake.
func (c *Component) Start() error {
	c.r.Info().Msg("starting traffic event intake")
	for i := 0; i < c.config.Workers; i++ {
		c.t.Go(c.worker)
	}
	c.t.Go(c.pruneLimiters)
	return nil
}

// Stop stops the traffic event intake.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("traffic event intake stopped")
	c.t.Kill(nil)
	return c.t.Wait()
}

// Observe enqueues one traffic observation. It never blocks: when the
// queue is full, the event is dropped, counted, and an overflow alert
// is emitted at a bounded rate.
func (c *Component) Observe(src netip.Addr, dstPort uint16, ts time.Time, weight uint64) {
	if weight == 0 {
		weight = 1
	}
	if ts.IsZero() {
		ts = c.clock.Now()
	}
	if c.config.RateLimit > 0 && !c.limiter(src).AllowN(ts, int(weight)) {
		c.metrics.dropped.WithLabelValues("ratelimited").Inc()
		return
	}
	select {
	case c.queue <- schema.TrafficEvent{SrcAddr: src, DstPort: dstPort, Timestamp: ts, Weight: weight}:
		c.metrics.received.Inc()
	default:
		c.metrics.dropped.WithLabelValues("overflow").Inc()
		c.overflowLog.Warn().Msg("intake queue full, dropping events")
		c.overflowAlert()
	}
}

// overflowAlert emits at most one overflow alert per window to avoid an
// alert flood during the very condition being reported.
func (c *Component) overflowAlert() {
	now := c.clock.Now()
	c.alertMu.Lock()
	if !c.lastOverflow.IsZero() && now.Sub(c.lastOverflow) < time.Minute {
		c.alertMu.Unlock()
		return
	}
	c.lastOverflow = now
	c.alertMu.Unlock()
	if c.d.Alert != nil {
		c.d.Alert.Publish(alert.Event{
			Severity: alert.SeverityWarning,
			Kind:     "intake-overflow",
			Message:  "intake queue full, events are being dropped",
		})
	}
}

func (c *Component) worker() error {
	for {
		select {
		case <-c.t.Dying():
			return nil
		case event := <-c.queue:
			c.d.Tracker.Record(event)
		}
	}
}

// limiter returns the rate limiter for a source, creating it lazily.
func (c *Component) limiter(src netip.Addr) *rate.Limiter {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()
	l, ok := c.limiters[src]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.config.RateLimit), int(c.config.RateLimit))
		c.limiters[src] = l
	}
	return l
}

// pruneLimiters drops the per-source limiters every minute so the map
// does not grow without bound under spoofed sources.
func (c *Component) pruneLimiters() error {
	ticker := c.clock.Ticker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.t.Dying():
			return nil
		case <-ticker.C:
			c.limiterMu.Lock()
			c.limiters = make(map[netip.Addr]*rate.Limiter)
			c.limiterMu.Unlock()
		}
	}
}
