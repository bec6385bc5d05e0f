// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import (
	"fmt"
	"net/netip"
	"sort"
	"time"

	"dosguard/monitor/tracker"
)

// thresholdDetector classifies a port as under attack when the windowed
// aggregate strictly exceeds the configured maximum.
type thresholdDetector struct {
	granularity string
	topN        int
	thresholds  map[uint16]ThresholdConfiguration
	window      time.Duration
}

func (d *thresholdDetector) Evaluate(port uint16, snapshot tracker.Snapshot) Verdict {
	threshold, ok := d.thresholds[port]
	if !ok {
		return Verdict{}
	}
	switch d.granularity {
	case "ip":
		offenders := []netip.Addr{}
		var worst uint64
		for ip, count := range snapshot.PerIP {
			if count > threshold.MaxRequests {
				offenders = append(offenders, ip)
				if count > worst {
					worst = count
				}
			}
		}
		if len(offenders) == 0 {
			return Verdict{}
		}
		sort.Slice(offenders, func(i, j int) bool {
			return offenders[i].Less(offenders[j])
		})
		return Verdict{
			UnderAttack: true,
			Offenders:   offenders,
			Reason: fmt.Sprintf("%d sources over %d requests per %s (worst %d)",
				len(offenders), threshold.MaxRequests, d.window, worst),
		}
	default:
		if snapshot.TotalObserved <= threshold.MaxRequests {
			return Verdict{}
		}
		return Verdict{
			UnderAttack: true,
			Offenders:   topOffenders(snapshot.PerIP, d.topN),
			Reason: fmt.Sprintf("%d requests per %s, threshold %d",
				snapshot.TotalObserved, d.window, threshold.MaxRequests),
		}
	}
}

// topOffenders returns the n heaviest sources, heaviest first. Ties
// break on address order to keep the result stable.
func topOffenders(perIP map[netip.Addr]uint64, n int) []netip.Addr {
	ips := make([]netip.Addr, 0, len(perIP))
	for ip := range perIP {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool {
		if perIP[ips[i]] != perIP[ips[j]] {
			return perIP[ips[i]] > perIP[ips[j]]
		}
		return ips[i].Less(ips[j])
	})
	if len(ips) > n {
		ips = ips[:n]
	}
	return ips
}
