// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

// DosguardVersion contains the current version. It is overridden at
// build time.
var DosguardVersion = "dev"
