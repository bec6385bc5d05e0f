// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package tracker

import (
	"testing"

	"github.com/benbjohnson/clock"

	"dosguard/common/reporter"
)

// NewMock creates a tracker driven by a mock clock.
func NewMock(t *testing.T, r *reporter.Reporter, config Configuration) (*Component, *clock.Mock) {
	t.Helper()
	c, err := New(r, config)
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	mock := clock.NewMock()
	c.clock = mock
	return c, mock
}
