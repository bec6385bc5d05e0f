// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package effector

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"dosguard/common/helpers"
)

func TestNew(t *testing.T) {
	if _, err := New(DefaultConfiguration()); err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	if _, err := New(Configuration{Type: "invalid"}); err == nil {
		t.Fatal("New() did not error on unknown type")
	}
}

func TestMock(t *testing.T) {
	m := NewMock()
	ip := netip.MustParseAddr("192.0.2.15")
	if err := m.BlockIP(context.Background(), ip); err != nil {
		t.Fatalf("BlockIP() error:\n%+v", err)
	}
	if err := m.BlockPort(context.Background(), 80); err != nil {
		t.Fatalf("BlockPort() error:\n%+v", err)
	}
	expected := []MockCall{
		{Kind: "block-ip", IP: ip},
		{Kind: "block-port", Port: 80},
	}
	if diff := helpers.Diff(m.Calls(), expected); diff != "" {
		t.Fatalf("Calls() (-got, +want):\n%s", diff)
	}

	injected := errors.New("nope")
	m.Fail["unblock-ip"] = injected
	if err := m.UnblockIP(context.Background(), ip); !errors.Is(err, injected) {
		t.Fatalf("UnblockIP() error: got %v, expected %v", err, injected)
	}
	if diff := helpers.Diff(m.Calls(), expected); diff != "" {
		t.Fatalf("Calls() after failure (-got, +want):\n%s", diff)
	}
}
