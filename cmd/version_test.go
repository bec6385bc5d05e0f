// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd_test

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"dosguard/cmd"
	"dosguard/common/helpers"
)

func TestVersion(t *testing.T) {
	root := cmd.RootCmd
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})
	err := root.Execute()
	if err != nil {
		t.Errorf("`version` error:\n%+v", err)
	}
	want := []string{
		"dosguard dev",
		fmt.Sprintf("  Built with: %s", runtime.Version()),
	}
	got := strings.Split(buf.String(), "\n")
	if len(got) < 2 {
		t.Fatalf("`version` output too short:\n%s", buf.String())
	}
	if diff := helpers.Diff(got[:2], want); diff != "" {
		t.Errorf("`version` (-got, +want):\n%s", diff)
	}
}
