// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package alert

import "dosguard/common/reporter"

type metrics struct {
	published *reporter.CounterVec
	dropped   *reporter.CounterVec
	sinkError *reporter.CounterVec
}

func (c *Component) initMetrics() {
	c.metrics.published = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "published_total",
			Help: "Number of published alert events.",
		}, []string{"severity"},
	)
	c.metrics.dropped = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "dropped_total",
			Help: "Number of alert events dropped due to a slow subscriber.",
		}, []string{"subscriber"},
	)
	c.metrics.sinkError = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "sink_errors_total",
			Help: "Number of delivery errors per sink.",
		}, []string{"sink"},
	)
}
