// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package blocker

import (
	"testing"

	"github.com/benbjohnson/clock"

	"dosguard/common/daemon"
	"dosguard/common/helpers"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/effector"
)

// NewMock creates a started blocking policy controller with a mock
// clock and a mock effector.
func NewMock(t *testing.T, r *reporter.Reporter, config Configuration) (*Component, *clock.Mock, *effector.Mock, *alert.Component) {
	t.Helper()
	a, _ := alert.NewMock(t, r)
	e := effector.NewMock()
	c, err := New(r, config, Dependencies{
		Daemon:   daemon.NewMock(t),
		Effector: e,
		Alert:    a,
	})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	mock := clock.NewMock()
	c.clock = mock
	helpers.StartStop(t, c)
	return c, mock, e, a
}
