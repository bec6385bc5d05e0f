// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package tracker

import "time"

// Configuration describes the configuration of the rate window tracker.
type Configuration struct {
	// Window is the trailing time span over which rates are measured.
	Window time.Duration `validate:"min=1s"`
	// Ports is the set of monitored destination ports.
	Ports []uint16 `validate:"min=1,dive,min=1"`
}

// DefaultConfiguration is the default configuration of the rate window
// tracker.
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: 10 * time.Second,
		Ports:  []uint16{22, 80, 443, 8080},
	}
}
