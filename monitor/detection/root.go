// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package detection evaluates windowed rate aggregates against the
// configured thresholds and drives attack-state transitions per port.
package detection

import (
	"fmt"
	"net/netip"

	"github.com/benbjohnson/clock"
	"gopkg.in/tomb.v2"

	"dosguard/common/daemon"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/blocker"
	"dosguard/monitor/status"
	"dosguard/monitor/tracker"
)

// Detector evaluates the snapshot of one port and renders a verdict.
// The engine composes several of them.
type Detector interface {
	Evaluate(port uint16, snapshot tracker.Snapshot) Verdict
}

// Verdict is the outcome of one detector on one port.
type Verdict struct {
	// UnderAttack tells if the port should be classified as under
	// attack.
	UnderAttack bool
	// Offenders lists the source addresses attributed to the attack.
	Offenders []netip.Addr
	// Reason explains the verdict.
	Reason string
}

// portState is the detection state of one port.
type portState struct {
	underAttack bool
	// calmCycles counts consecutive evaluation cycles below
	// threshold, for hysteresis.
	calmCycles int
}

// Component implements the detection engine.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration
	clock  clock.Clock

	detectors []Detector
	states    map[uint16]*portState
	metrics   metrics
}

// Dependencies define the dependencies of the detection engine.
type Dependencies struct {
	Daemon  daemon.Component
	Tracker *tracker.Component
	Blocker *blocker.Component
	Alert   *alert.Component
	Status  *status.Component
}

// New creates a new detection engine.
func New(r *reporter.Reporter, config Configuration, deps Dependencies) (*Component, error) {
	for _, port := range deps.Tracker.Ports() {
		if _, ok := config.Thresholds[port]; !ok {
			return nil, fmt.Errorf("no threshold configured for monitored port %d", port)
		}
	}
	c := &Component{
		r:      r,
		d:      &deps,
		config: config,
		clock:  clock.New(),

		states: make(map[uint16]*portState),
	}
	c.detectors = append(c.detectors, &thresholdDetector{
		granularity: config.Granularity,
		topN:        config.TopN,
		thresholds:  config.Thresholds,
		window:      deps.Tracker.Window(),
	})
	if config.Anomaly.Enabled {
		c.detectors = append(c.detectors, &anomalyDetector{
			zScore:     config.Anomaly.ZScore,
			minSources: config.Anomaly.MinSources,
		})
	}
	for _, port := range deps.Tracker.Ports() {
		c.states[port] = &portState{}
	}
	c.initMetrics()
	c.d.Daemon.Track(&c.t, "monitor/detection")
	return c, nil
}

// Start starts the evaluation loop of the detection engine.
func (c *Component) Start() error {
	c.r.Info().Msg("starting detection engine")
	c.t.Go(func() error {
		ticker := c.clock.Ticker(c.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.t.Dying():
				return nil
			case <-ticker.C:
				c.evaluateAll()
			}
		}
	})
	return nil
}

// Stop stops the detection engine.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("detection engine stopped")
	c.t.Kill(nil)
	return c.t.Wait()
}

// evaluateAll runs one evaluation cycle over every monitored port.
func (c *Component) evaluateAll() {
	for _, port := range c.d.Tracker.Ports() {
		c.evaluate(port)
	}
	c.metrics.cycles.Inc()
}

// evaluate runs the detectors on one port and applies the transition
// rules. Transitions are edge-triggered: a sustained breach emits a
// single alert.
func (c *Component) evaluate(port uint16) {
	snapshot := c.d.Tracker.Snapshot(port)
	if c.d.Status != nil {
		c.d.Status.SetTraffic(port, snapshot.TotalObserved, snapshot.UniqueIPs)
	}

	verdict := Verdict{}
	for _, detector := range c.detectors {
		v := detector.Evaluate(port, snapshot)
		if !v.UnderAttack {
			continue
		}
		verdict.UnderAttack = true
		verdict.Offenders = append(verdict.Offenders, v.Offenders...)
		if verdict.Reason == "" {
			verdict.Reason = v.Reason
		}
	}

	state := c.states[port]
	now := c.clock.Now()
	switch {
	case verdict.UnderAttack && !state.underAttack:
		state.underAttack = true
		state.calmCycles = 0
		c.metrics.attacks.Inc()
		severity := alert.SeverityWarning
		if c.config.Thresholds[port].Critical {
			severity = alert.SeverityCritical
		}
		c.d.Alert.Publish(alert.Event{
			Severity: severity,
			Port:     port,
			Kind:     "attack-detected",
			Message:  fmt.Sprintf("port %d under attack: %s", port, verdict.Reason),
		})
		if c.d.Status != nil {
			c.d.Status.SetUnderAttack(port, true, now)
		}
	case verdict.UnderAttack:
		state.calmCycles = 0
	case state.underAttack:
		state.calmCycles++
		if state.calmCycles >= c.config.HysteresisCycles {
			state.underAttack = false
			c.d.Alert.Publish(alert.Event{
				Severity: alert.SeverityInfo,
				Port:     port,
				Kind:     "attack-ended",
				Message:  fmt.Sprintf("port %d back to normal", port),
			})
			if c.d.Status != nil {
				c.d.Status.SetUnderAttack(port, false, now)
			}
		}
	}

	// Offenders are reported every cycle: blocking is idempotent and
	// late joiners to a sustained attack are caught too.
	if verdict.UnderAttack && c.config.AutoBlock && c.d.Blocker != nil {
		for _, ip := range verdict.Offenders {
			c.d.Blocker.Block(ip, fmt.Sprintf("attack on port %d", port))
		}
	}
}
