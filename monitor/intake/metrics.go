// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package intake

import "dosguard/common/reporter"

type metrics struct {
	received reporter.Counter
	dropped  *reporter.CounterVec
}

func (c *Component) initMetrics() {
	c.metrics.received = c.r.Counter(
		reporter.CounterOpts{
			Name: "received_events_total",
			Help: "Number of events accepted into the queue.",
		},
	)
	c.metrics.dropped = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "dropped_events_total",
			Help: "Number of events dropped before reaching the tracker.",
		}, []string{"reason"},
	)
	c.r.GaugeFunc(
		reporter.GaugeOpts{
			Name: "queue_length",
			Help: "Number of events waiting in the queue.",
		}, func() float64 {
			return float64(len(c.queue))
		},
	)
}
