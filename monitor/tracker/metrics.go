// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package tracker

import "dosguard/common/reporter"

type metrics struct {
	events  *reporter.CounterVec
	ignored reporter.Counter
}

func (c *Component) initMetrics() {
	c.metrics.events = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "events_total",
			Help: "Number of events recorded per monitored port.",
		}, []string{"port"},
	)
	c.metrics.ignored = c.r.Counter(
		reporter.CounterOpts{
			Name: "ignored_events_total",
			Help: "Number of events for unmonitored ports.",
		},
	)
}
