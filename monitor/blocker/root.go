// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package blocker drives the blocking policy: automatic block on
// detection, timed unblock, whitelist override and administrative port
// toggling. Blocking granularity is per IP, globally: an address
// blocked for flooding one port is dropped everywhere. Per-port
// blocking is a distinct manual operation.
package blocker

import (
	"net/netip"
	"sync"

	"github.com/benbjohnson/clock"
	"gopkg.in/tomb.v2"

	"dosguard/common/daemon"
	"dosguard/common/httpserver"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/effector"
	"dosguard/monitor/status"
)

// Component implements the blocking policy controller.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration
	clock  clock.Clock

	whitelist []netip.Prefix

	// mu guards entries and blockedPorts. Effector calls happen
	// outside of it, serialized per entry by the entry mutex.
	mu           sync.Mutex
	entries      map[netip.Addr]*entry
	blockedPorts map[uint16]bool

	metrics metrics
}

// Dependencies define the dependencies of the blocking policy
// controller.
type Dependencies struct {
	Daemon   daemon.Component
	HTTP     *httpserver.Component
	Effector effector.Effector
	Alert    *alert.Component
	Status   *status.Component
}

// New creates a new blocking policy controller.
func New(r *reporter.Reporter, config Configuration, deps Dependencies) (*Component, error) {
	whitelist, err := parseWhitelist(config.Whitelist)
	if err != nil {
		return nil, err
	}
	c := &Component{
		r:      r,
		d:      &deps,
		config: config,
		clock:  clock.New(),

		whitelist:    whitelist,
		entries:      make(map[netip.Addr]*entry),
		blockedPorts: make(map[uint16]bool),
	}
	c.initMetrics()
	c.d.Daemon.Track(&c.t, "monitor/blocker")
	if c.d.HTTP != nil {
		c.d.HTTP.GinRouter.POST("/api/v0/blocker/block", c.blockHandlerFunc)
		c.d.HTTP.GinRouter.POST("/api/v0/blocker/unblock", c.unblockHandlerFunc)
		c.d.HTTP.GinRouter.POST("/api/v0/blocker/ports/:port/toggle", c.togglePortHandlerFunc)
		c.d.HTTP.GinRouter.GET("/api/v0/blocker/blocked", c.blockedHandlerFunc)
	}
	return c, nil
}

// Start starts the reconcile loop of the blocking policy controller.
func (c *Component) Start() error {
	c.r.Info().Msg("starting blocking policy controller")
	c.t.Go(c.reconcileLoop)
	return nil
}

// Stop stops the blocking policy controller.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("blocking policy controller stopped")
	c.t.Kill(nil)
	return c.t.Wait()
}

// Whitelisted tells if an address is exempt from blocking.
func (c *Component) Whitelisted(ip netip.Addr) bool {
	for _, prefix := range c.whitelist {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}
