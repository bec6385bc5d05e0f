// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package detection

import (
	"testing"

	"github.com/benbjohnson/clock"

	"dosguard/common/daemon"
	"dosguard/common/helpers"
	"dosguard/common/reporter"
)

// NewMock creates a started detection engine with a mock clock.
func NewMock(t *testing.T, r *reporter.Reporter, config Configuration, deps Dependencies) (*Component, *clock.Mock) {
	t.Helper()
	if deps.Daemon == nil {
		deps.Daemon = daemon.NewMock(t)
	}
	c, err := New(r, config, deps)
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	mock := clock.NewMock()
	c.clock = mock
	helpers.StartStop(t, c)
	return c, mock
}
