// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package status keeps a concurrency-safe snapshot of the per-port
// monitoring state for external consumers.
package status

import (
	"sync"
	"time"

	"dosguard/common/httpserver"
	"dosguard/common/reporter"
)

// PortState is the summary state of a monitored port.
type PortState string

// Possible port states. The administrative blocked state takes
// precedence over the detection one in the summary.
const (
	PortOpen        PortState = "open"
	PortUnderAttack PortState = "under-attack"
	PortBlocked     PortState = "blocked"
)

// PortStatus is the state of one monitored port as exposed to
// consumers.
type PortStatus struct {
	Port             uint16    `json:"port"`
	State            PortState `json:"state"`
	TotalObserved    uint64    `json:"total-observed"`
	UniqueIPs        int       `json:"unique-ips"`
	LastTransitionAt time.Time `json:"last-transition-at"`
}

type entry struct {
	underAttack    bool
	adminBlocked   bool
	totalObserved  uint64
	uniqueIPs      int
	lastTransition time.Time
}

// Component implements the status store.
type Component struct {
	r *reporter.Reporter
	d *Dependencies

	mu    sync.RWMutex
	ports map[uint16]entry
}

// Dependencies define the dependencies of the status store.
type Dependencies struct {
	HTTP *httpserver.Component
}

// New creates a new status store.
func New(r *reporter.Reporter, deps Dependencies) (*Component, error) {
	c := &Component{
		r:     r,
		d:     &deps,
		ports: make(map[uint16]entry),
	}
	if c.d.HTTP != nil {
		c.d.HTTP.GinRouter.GET("/api/v0/status", c.statusHandlerFunc)
		c.d.HTTP.GinRouter.GET("/api/v0/status/:port", c.statusPortHandlerFunc)
	}
	return c, nil
}

func (e entry) state() PortState {
	switch {
	case e.adminBlocked:
		return PortBlocked
	case e.underAttack:
		return PortUnderAttack
	}
	return PortOpen
}

func (e entry) status(port uint16) PortStatus {
	return PortStatus{
		Port:             port,
		State:            e.state(),
		TotalObserved:    e.totalObserved,
		UniqueIPs:        e.uniqueIPs,
		LastTransitionAt: e.lastTransition,
	}
}

// SetTraffic updates the traffic aggregates of a port.
func (c *Component) SetTraffic(port uint16, totalObserved uint64, uniqueIPs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ports[port]
	e.totalObserved = totalObserved
	e.uniqueIPs = uniqueIPs
	c.ports[port] = e
}

// SetUnderAttack flips the detection flag of a port.
func (c *Component) SetUnderAttack(port uint16, underAttack bool, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ports[port]
	previous := e.state()
	e.underAttack = underAttack
	if e.state() != previous {
		e.lastTransition = at
	}
	c.ports[port] = e
}

// SetAdminBlocked flips the administrative blocked flag of a port.
func (c *Component) SetAdminBlocked(port uint16, blocked bool, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ports[port]
	previous := e.state()
	e.adminBlocked = blocked
	if e.state() != previous {
		e.lastTransition = at
	}
	c.ports[port] = e
}

// AdminBlocked tells if a port is administratively blocked.
func (c *Component) AdminBlocked(port uint16) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ports[port].adminBlocked
}

// Get returns the status of one port.
func (c *Component) Get(port uint16) (PortStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.ports[port]
	if !ok {
		return PortStatus{}, false
	}
	return e.status(port), true
}

// All returns the status of every known port.
func (c *Component) All() map[uint16]PortStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := make(map[uint16]PortStatus, len(c.ports))
	for port, e := range c.ports {
		all[port] = e.status(port)
	}
	return all
}
