// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package reporter is a façade for reporting duties in dosguard.
//
// Such a façade currently includes logging, metrics and healthchecks.
package reporter

import (
	"sync"

	"dosguard/common/reporter/logger"
	"dosguard/common/reporter/metrics"
)

// Reporter contains the state for a reporter. It also supports the
// same interface as a logger.
type Reporter struct {
	logger.Logger
	metrics *metrics.Metrics

	healthchecks     map[string]HealthcheckFunc
	healthchecksLock sync.Mutex
}

// New creates a new reporter from a configuration.
func New(config Configuration) (*Reporter, error) {
	l, err := logger.New(config.Logging)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New(l, config.Metrics)
	if err != nil {
		return nil, err
	}

	return &Reporter{
		Logger:       l,
		metrics:      m,
		healthchecks: make(map[string]HealthcheckFunc),
	}, nil
}

// Start does nothing. The reporter is operational as soon as it is created.
func (r *Reporter) Start() error {
	return nil
}

// Stop does nothing.
func (r *Reporter) Stop() error {
	r.Debug().Msg("stopping reporter")
	return nil
}
