// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package alert fans out detection and blocking events to subscribers.
// Each subscriber owns a buffered channel drained at its own pace, so a
// slow consumer only loses its own events.
package alert

import (
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"gopkg.in/tomb.v2"

	"dosguard/common/daemon"
	"dosguard/common/httpserver"
	"dosguard/common/reporter"
)

// Severity qualifies an alert event.
type Severity string

// Possible severities, from least to most pressing.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is one alert emitted by a detection or blocking transition. It
// is immutable after publication.
type Event struct {
	ID        uuid.UUID  `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Severity  Severity   `json:"severity"`
	Port      uint16     `json:"port,omitempty"`
	IP        netip.Addr `json:"ip"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
}

type subscriber struct {
	name string
	ch   chan Event
}

// Component implements the alert dispatcher.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration
	clock  clock.Clock

	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int
	recent      []Event

	metrics metrics
}

// Dependencies define the dependencies of the alert dispatcher.
type Dependencies struct {
	Daemon daemon.Component
	HTTP   *httpserver.Component
}

// New creates a new alert dispatcher.
func New(r *reporter.Reporter, config Configuration, deps Dependencies) (*Component, error) {
	c := &Component{
		r:      r,
		d:      &deps,
		config: config,
		clock:  clock.New(),

		subscribers: make(map[int]*subscriber),
	}
	c.initMetrics()
	c.d.Daemon.Track(&c.t, "monitor/alert")
	if c.d.HTTP != nil {
		c.d.HTTP.GinRouter.GET("/api/v0/alerts", c.alertsHandlerFunc)
		c.d.HTTP.GinRouter.GET("/api/v0/alerts/ws", c.alertsWebsocketHandlerFunc)
	}
	return c, nil
}

// Start starts the sinks of the alert dispatcher.
func (c *Component) Start() error {
	c.r.Info().Msg("starting alert dispatcher")
	c.startLogSink()
	if c.config.Webhook.URL != "" {
		c.startWebhookSink()
	}
	if c.config.Redis.Server != "" {
		if err := c.startRedisSink(); err != nil {
			return err
		}
	}
	// Keep the tomb alive even without sinks.
	c.t.Go(func() error {
		<-c.t.Dying()
		return nil
	})
	return nil
}

// Stop stops the alert dispatcher.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("alert dispatcher stopped")
	c.t.Kill(nil)
	return c.t.Wait()
}

// Publish delivers an event to all current subscribers. It never
// blocks: a subscriber with a full buffer loses the event and the drop
// is counted. The ID and timestamp are filled in when absent.
func (c *Component) Publish(event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.clock.Now().UTC()
	}
	c.metrics.published.WithLabelValues(string(event.Severity)).Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent = append(c.recent, event)
	if len(c.recent) > c.config.RecentCount {
		c.recent = c.recent[len(c.recent)-c.config.RecentCount:]
	}
	for _, s := range c.subscribers {
		select {
		case s.ch <- event:
		default:
			c.metrics.dropped.WithLabelValues(s.name).Inc()
		}
	}
}

// Subscribe registers a new subscriber and returns its channel along
// with a function to unsubscribe. Events are delivered in publication
// order. Safe to call at any time, including during a publish.
func (c *Component) Subscribe(name string) (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	s := &subscriber{
		name: name,
		ch:   make(chan Event, c.config.Buffer),
	}
	c.subscribers[id] = s
	return s.ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(s.ch)
		}
	}
}

// Recent returns a copy of the most recent events, oldest first.
func (c *Component) Recent() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]Event, len(c.recent))
	copy(events, c.recent)
	return events
}
