// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package effector

import (
	"context"
	"net/netip"
	"sync"
)

// Mock is an effector recording the calls it receives. Errors can be
// injected per operation kind.
type Mock struct {
	mu    sync.Mutex
	calls []MockCall
	// Fail makes operations of the matching kind return the error.
	Fail map[string]error
}

// MockCall is one recorded effector invocation.
type MockCall struct {
	// Kind is one of block-ip, unblock-ip, block-port, unblock-port.
	Kind string
	IP   netip.Addr
	Port uint16
}

// NewMock creates a mock effector.
func NewMock() *Mock {
	return &Mock{Fail: map[string]error{}}
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *Mock) record(call MockCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[call.Kind]; err != nil {
		return err
	}
	m.calls = append(m.calls, call)
	return nil
}

// BlockIP records a block request for an IP.
func (m *Mock) BlockIP(_ context.Context, ip netip.Addr) error {
	return m.record(MockCall{Kind: "block-ip", IP: ip})
}

// UnblockIP records an unblock request for an IP.
func (m *Mock) UnblockIP(_ context.Context, ip netip.Addr) error {
	return m.record(MockCall{Kind: "unblock-ip", IP: ip})
}

// BlockPort records a block request for a port.
func (m *Mock) BlockPort(_ context.Context, port uint16) error {
	return m.record(MockCall{Kind: "block-port", Port: port})
}

// UnblockPort records an unblock request for a port.
func (m *Mock) UnblockPort(_ context.Context, port uint16) error {
	return m.record(MockCall{Kind: "unblock-port", Port: port})
}
