// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dosguard/monitor/alert"
)

// apply converges the OS-level state of one entry with the
// administrative intent. On effector failure the intent is retained and
// the reconcile loop retries later with backoff.
func (c *Component) apply(e *entry) {
	e.busy.Lock()
	defer e.busy.Unlock()

	c.mu.Lock()
	ip, desired, applied := e.ip, e.desired, e.applied
	c.mu.Unlock()
	if desired == applied {
		if !desired {
			c.remove(e)
		}
		return
	}

	ctx := c.t.Context(nil)
	operation := "block"
	var err error
	if desired {
		err = c.d.Effector.BlockIP(ctx, ip)
	} else {
		operation = "unblock"
		err = c.d.Effector.UnblockIP(ctx, ip)
	}
	if err != nil {
		c.mu.Lock()
		e.nextRetry = c.clock.Now().Add(e.retry.NextBackOff())
		c.mu.Unlock()
		c.metrics.effectorErrors.WithLabelValues(operation).Inc()
		c.d.Alert.Publish(alert.Event{
			Severity: alert.SeverityError,
			IP:       ip,
			Kind:     operation + "-failed",
			Message:  fmt.Sprintf("cannot %s address %s: %s", operation, ip, err),
		})
		return
	}

	c.mu.Lock()
	e.applied = desired
	e.retry.Reset()
	e.nextRetry = time.Time{}
	c.mu.Unlock()
	if !desired {
		c.remove(e)
	}
}

// remove deletes an entry once unblocked and confirmed. A concurrent
// re-block keeps the entry.
func (c *Component) remove(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[e.ip]; ok && current == e && !e.desired && !e.applied {
		delete(c.entries, e.ip)
	}
}

// reconcileLoop periodically retries entries whose OS-level state does
// not match the administrative intent yet.
func (c *Component) reconcileLoop() error {
	ticker := c.clock.Ticker(c.config.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.t.Dying():
			return nil
		case <-ticker.C:
			now := c.clock.Now()
			c.mu.Lock()
			pending := make([]*entry, 0)
			for _, e := range c.entries {
				if e.desired != e.applied && !e.nextRetry.After(now) {
					pending = append(pending, e)
				}
			}
			c.mu.Unlock()
			for _, e := range pending {
				c.metrics.retries.Inc()
				c.apply(e)
			}
		}
	}
}

func (c *Component) newRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.ReconcileInterval
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Clock = c.clock
	b.Reset()
	return b
}
