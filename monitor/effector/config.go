// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package effector

import "time"

// Configuration describes the configuration of the effector.
type Configuration struct {
	// Type selects the implementation, either "exec" or "noop".
	Type string `validate:"required,oneof=exec noop"`
	// Exec configures the exec implementation.
	Exec ExecConfiguration
}

// ExecConfiguration describes the configuration of the exec effector.
type ExecConfiguration struct {
	// Command is the firewall command to invoke.
	Command string `validate:"required"`
	// Chain is the firewall chain rules are added to and removed from.
	Chain string `validate:"required"`
	// Timeout bounds each command invocation.
	Timeout time.Duration `validate:"min=100ms"`
}

// DefaultConfiguration is the default configuration of the effector.
func DefaultConfiguration() Configuration {
	return Configuration{
		Type: "noop",
		Exec: ExecConfiguration{
			Command: "iptables",
			Chain:   "INPUT",
			Timeout: 5 * time.Second,
		},
	}
}
