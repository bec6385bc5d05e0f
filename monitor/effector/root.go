// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package effector abstracts the firewall integration used to enforce
// block decisions. The exec implementation shells out to an external
// command (iptables by default) while the noop implementation reports
// success without doing anything, for platforms without the needed
// privileges.
package effector

import (
	"context"
	"fmt"
	"net/netip"
)

// Effector enacts and reverts block decisions at the OS level.
type Effector interface {
	// BlockIP installs a drop rule for the provided source address.
	BlockIP(ctx context.Context, ip netip.Addr) error
	// UnblockIP removes the drop rule for the provided source address.
	UnblockIP(ctx context.Context, ip netip.Addr) error
	// BlockPort installs a drop rule for the provided destination port.
	BlockPort(ctx context.Context, port uint16) error
	// UnblockPort removes the drop rule for the provided destination port.
	UnblockPort(ctx context.Context, port uint16) error
}

// New instantiates the effector described by the configuration.
func New(config Configuration) (Effector, error) {
	switch config.Type {
	case "noop":
		return &noopEffector{}, nil
	case "exec":
		return newExecEffector(config.Exec)
	}
	return nil, fmt.Errorf("unknown effector type %q", config.Type)
}
