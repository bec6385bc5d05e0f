// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package effector

import (
	"context"
	"net/netip"
)

// noopEffector accepts every request without touching the system. It
// keeps policy state consistent on platforms where no firewall can be
// programmed.
type noopEffector struct{}

func (*noopEffector) BlockIP(_ context.Context, _ netip.Addr) error { return nil }
func (*noopEffector) UnblockIP(_ context.Context, _ netip.Addr) error { return nil }
func (*noopEffector) BlockPort(_ context.Context, _ uint16) error { return nil }
func (*noopEffector) UnblockPort(_ context.Context, _ uint16) error { return nil }
