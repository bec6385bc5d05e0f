// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package effector

import (
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// execEffector translates block decisions into invocations of an
// external firewall command, iptables-compatible.
type execEffector struct {
	command string
	chain   string
	timeout time.Duration
}

func newExecEffector(config ExecConfiguration) (*execEffector, error) {
	if _, err := exec.LookPath(config.Command); err != nil {
		return nil, fmt.Errorf("cannot find %q: %w", config.Command, err)
	}
	return &execEffector{
		command: config.Command,
		chain:   config.Chain,
		timeout: config.Timeout,
	}, nil
}

func (e *execEffector) run(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, e.command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w (%s)",
			e.command, strings.Join(args, " "), err,
			strings.TrimSpace(string(output)))
	}
	return nil
}

func (e *execEffector) BlockIP(ctx context.Context, ip netip.Addr) error {
	return e.run(ctx, "-A", e.chain, "-s", ip.String(), "-j", "DROP")
}

func (e *execEffector) UnblockIP(ctx context.Context, ip netip.Addr) error {
	return e.run(ctx, "-D", e.chain, "-s", ip.String(), "-j", "DROP")
}

func (e *execEffector) BlockPort(ctx context.Context, port uint16) error {
	return e.run(ctx, "-A", e.chain, "-p", "tcp", "--dport", strconv.Itoa(int(port)), "-j", "DROP")
}

func (e *execEffector) UnblockPort(ctx context.Context, port uint16) error {
	return e.run(ctx, "-D", e.chain, "-p", "tcp", "--dport", strconv.Itoa(int(port)), "-j", "DROP")
}
