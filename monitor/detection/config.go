// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package detection

import "time"

// Configuration describes the configuration of the detection engine.
type Configuration struct {
	// Interval is the evaluation cadence. It should be well below
	// the tracker window.
	Interval time.Duration `validate:"min=100ms"`
	// HysteresisCycles is the number of consecutive sub-threshold
	// cycles before a port reverts to open.
	HysteresisCycles int `validate:"min=1"`
	// Granularity selects what the threshold applies to, the port
	// aggregate ("port") or each source address ("ip").
	Granularity string `validate:"oneof=port ip"`
	// TopN is the number of top offending addresses blocked on a
	// volumetric breach.
	TopN int `validate:"min=1"`
	// AutoBlock enables reporting offenders to the blocking policy
	// controller.
	AutoBlock bool
	// Thresholds configures the per-port threshold over the tracker
	// window. Every monitored port needs one.
	Thresholds map[uint16]ThresholdConfiguration `validate:"min=1,dive"`
	// Anomaly configures the advisory anomaly detector.
	Anomaly AnomalyConfiguration
}

// ThresholdConfiguration is the threshold of one monitored port.
type ThresholdConfiguration struct {
	// MaxRequests is the maximum weighted count tolerated over the
	// tracker window.
	MaxRequests uint64 `validate:"min=1"`
	// Critical escalates attack alerts for this port to critical
	// severity.
	Critical bool
}

// AnomalyConfiguration describes the advisory anomaly detector. It can
// only add an attack classification, never suppress the threshold one.
type AnomalyConfiguration struct {
	// Enabled turns the detector on.
	Enabled bool
	// ZScore is the robust z-score above which a source is flagged.
	ZScore float64 `validate:"min=1"`
	// MinSources is the minimum number of distinct sources before
	// the statistics are considered meaningful.
	MinSources int `validate:"min=2"`
}

// DefaultConfiguration is the default configuration of the detection
// engine.
func DefaultConfiguration() Configuration {
	return Configuration{
		Interval:         time.Second,
		HysteresisCycles: 1,
		Granularity:      "port",
		TopN:             3,
		AutoBlock:        true,
		Thresholds: map[uint16]ThresholdConfiguration{
			22:   {MaxRequests: 50},
			80:   {MaxRequests: 100, Critical: true},
			443:  {MaxRequests: 100, Critical: true},
			8080: {MaxRequests: 100},
		},
		Anomaly: AnomalyConfiguration{
			ZScore:     3,
			MinSources: 10,
		},
	}
}
