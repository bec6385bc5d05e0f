// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import (
	"fmt"
	"net/netip"
	"time"
)

// Configuration describes the configuration of the blocking policy
// controller.
type Configuration struct {
	// UnblockDelay is the delay after which a blocked address is
	// unblocked automatically. 0 keeps addresses blocked until a
	// manual unblock.
	UnblockDelay time.Duration `validate:"min=0"`
	// ReconcileInterval is the cadence of the loop retrying failed
	// effector calls.
	ReconcileInterval time.Duration `validate:"min=100ms"`
	// Whitelist lists addresses or prefixes exempt from blocking.
	Whitelist []string `validate:"dive,ip|cidr"`
}

// DefaultConfiguration is the default configuration of the blocking
// policy controller.
func DefaultConfiguration() Configuration {
	return Configuration{
		UnblockDelay:      5 * time.Minute,
		ReconcileInterval: time.Second,
		Whitelist:         []string{"127.0.0.1", "::1"},
	}
}

// parseWhitelist turns the configured addresses and prefixes into
// prefixes. A bare address covers exactly itself.
func parseWhitelist(whitelist []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(whitelist))
	for _, item := range whitelist {
		if prefix, err := netip.ParsePrefix(item); err == nil {
			prefixes = append(prefixes, prefix)
			continue
		}
		ip, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid whitelist entry %q: %w", item, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return prefixes, nil
}
