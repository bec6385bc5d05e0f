// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfiguration(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `---
tracker:
 window: 30s
 ports: [80, 443]
detection:
 interval: 2s
 granularity: ip
 thresholds:
  80:
   max-requests: 200
   critical: true
  443:
   max-requests: 100
blocker:
 unblock-delay: 10m
 whitelist: ["127.0.0.1", "10.0.0.0/8"]
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error:\n%+v", err)
	}

	config := ServeConfiguration{}
	config.Reset()
	options := ConfigRelatedOptions{Path: configFile}
	if err := options.Parse(new(bytes.Buffer), "serve", &config); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}

	if config.Tracker.Window != 30*time.Second {
		t.Errorf("Tracker.Window: got %s, expected 30s", config.Tracker.Window)
	}
	if config.Detection.Granularity != "ip" {
		t.Errorf("Detection.Granularity: got %s, expected ip", config.Detection.Granularity)
	}
	if got := config.Detection.Thresholds[80].MaxRequests; got != 200 {
		t.Errorf("Thresholds[80].MaxRequests: got %d, expected 200", got)
	}
	if !config.Detection.Thresholds[80].Critical {
		t.Error("Thresholds[80].Critical: should be true")
	}
	if config.Blocker.UnblockDelay != 10*time.Minute {
		t.Errorf("Blocker.UnblockDelay: got %s, expected 10m", config.Blocker.UnblockDelay)
	}
}

func TestParseConfigurationEnvOverride(t *testing.T) {
	t.Setenv("DOSGUARD_SERVE_TRACKER_WINDOW", "45s")
	t.Setenv("DOSGUARD_SERVE_DETECTION_INTERVAL", "3s")

	config := ServeConfiguration{}
	config.Reset()
	options := ConfigRelatedOptions{}
	if err := options.Parse(new(bytes.Buffer), "serve", &config); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	if config.Tracker.Window != 45*time.Second {
		t.Errorf("Tracker.Window: got %s, expected 45s", config.Tracker.Window)
	}
	if config.Detection.Interval != 3*time.Second {
		t.Errorf("Detection.Interval: got %s, expected 3s", config.Detection.Interval)
	}
}

func TestParseInvalidConfiguration(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	cases := []struct {
		description string
		content     string
	}{
		{"unknown key", "tracker:\n windows: 30s\n"},
		{"invalid window", "tracker:\n window: 10ms\n"},
		{"invalid granularity", "detection:\n granularity: subnet\n"},
		{"invalid whitelist", "blocker:\n whitelist: [\"not-an-ip\"]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			if err := os.WriteFile(configFile, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error:\n%+v", err)
			}
			config := ServeConfiguration{}
			config.Reset()
			options := ConfigRelatedOptions{Path: configFile}
			if err := options.Parse(new(bytes.Buffer), "serve", &config); err == nil {
				t.Fatal("Parse() did not error")
			}
		})
	}
}
