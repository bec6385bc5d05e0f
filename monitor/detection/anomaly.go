// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import (
	"fmt"
	"math"

	"dosguard/monitor/tracker"
)

// anomalyDetector flags a port when one source deviates too much from
// the others, using a z-score over the per-source counts. It is
// advisory: it adds an attack classification on top of the threshold
// detector but never suppresses one.
type anomalyDetector struct {
	zScore     float64
	minSources int
}

func (d *anomalyDetector) Evaluate(port uint16, snapshot tracker.Snapshot) Verdict {
	if snapshot.UniqueIPs < d.minSources {
		return Verdict{}
	}
	var sum, sumSquares float64
	for _, count := range snapshot.PerIP {
		sum += float64(count)
		sumSquares += float64(count) * float64(count)
	}
	n := float64(snapshot.UniqueIPs)
	mean := sum / n
	stddev := math.Sqrt(sumSquares/n - mean*mean)
	if stddev == 0 {
		return Verdict{}
	}
	var worst float64
	for _, count := range snapshot.PerIP {
		if z := (float64(count) - mean) / stddev; z > worst {
			worst = z
		}
	}
	if worst <= d.zScore {
		return Verdict{}
	}
	return Verdict{
		UnderAttack: true,
		Reason: fmt.Sprintf("source deviates from peers on port %d (z-score %.1f)",
			port, worst),
	}
}
