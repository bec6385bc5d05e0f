// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import "dosguard/common/reporter"

type metrics struct {
	blocks         reporter.Counter
	unblocks       *reporter.CounterVec
	suppressed     reporter.Counter
	effectorErrors *reporter.CounterVec
	retries        reporter.Counter
}

func (c *Component) initMetrics() {
	c.metrics.blocks = c.r.Counter(
		reporter.CounterOpts{
			Name: "blocks_total",
			Help: "Number of addresses blocked.",
		},
	)
	c.metrics.unblocks = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "unblocks_total",
			Help: "Number of addresses unblocked.",
		}, []string{"trigger"},
	)
	c.metrics.suppressed = c.r.Counter(
		reporter.CounterOpts{
			Name: "suppressed_blocks_total",
			Help: "Number of blocks suppressed by the whitelist.",
		},
	)
	c.metrics.effectorErrors = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "effector_errors_total",
			Help: "Number of failed effector invocations.",
		}, []string{"operation"},
	)
	c.metrics.retries = c.r.Counter(
		reporter.CounterOpts{
			Name: "reconcile_retries_total",
			Help: "Number of effector calls retried by the reconcile loop.",
		},
	)
	c.r.GaugeFunc(
		reporter.GaugeOpts{
			Name: "blocked_ips",
			Help: "Number of currently blocked addresses.",
		}, func() float64 {
			c.mu.Lock()
			defer c.mu.Unlock()
			count := 0
			for _, e := range c.entries {
				if e.desired {
					count++
				}
			}
			return float64(count)
		},
	)
}
