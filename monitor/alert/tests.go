// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package alert

import (
	"testing"

	"github.com/benbjohnson/clock"

	"dosguard/common/daemon"
	"dosguard/common/helpers"
	"dosguard/common/reporter"
)

// NewMock creates a started alert dispatcher with a mock clock and no
// external sink.
func NewMock(t *testing.T, r *reporter.Reporter) (*Component, *clock.Mock) {
	t.Helper()
	c, err := New(r, DefaultConfiguration(), Dependencies{Daemon: daemon.NewMock(t)})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	mock := clock.NewMock()
	c.clock = mock
	helpers.StartStop(t, c)
	return c, mock
}
