// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import "dosguard/common/reporter"

type metrics struct {
	cycles  reporter.Counter
	attacks reporter.Counter
}

func (c *Component) initMetrics() {
	c.metrics.cycles = c.r.Counter(
		reporter.CounterOpts{
			Name: "evaluation_cycles_total",
			Help: "Number of completed evaluation cycles.",
		},
	)
	c.metrics.attacks = c.r.Counter(
		reporter.CounterOpts{
			Name: "attacks_detected_total",
			Help: "Number of detected attack episodes.",
		},
	)
}
