// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package schema defines the traffic event shared by the monitoring pipeline.
package schema

import (
	"net/netip"
	"time"
)

// TrafficEvent is a single normalized traffic observation. It is
// immutable and passed by value through the pipeline.
type TrafficEvent struct {
	// SrcAddr is the source address of the observation.
	SrcAddr netip.Addr
	// DstPort is the destination port of the observation.
	DstPort uint16
	// Timestamp tells when the observation was made.
	Timestamp time.Time
	// Weight is the number of packets or requests this event stands
	// for. It is at least 1.
	Weight uint64
}
