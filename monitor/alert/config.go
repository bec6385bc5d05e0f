// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package alert

import "time"

// Configuration describes the configuration of the alert dispatcher.
type Configuration struct {
	// Buffer is the per-subscriber channel depth.
	Buffer int `validate:"min=1"`
	// RecentCount bounds the in-memory history of recent alerts.
	RecentCount int `validate:"min=1"`
	// Webhook configures the webhook sink. Disabled when the URL is
	// empty.
	Webhook WebhookConfiguration
	// Redis configures the redis publish sink. Disabled when the
	// server is empty.
	Redis RedisConfiguration
}

// WebhookConfiguration describes the webhook sink.
type WebhookConfiguration struct {
	// URL is the endpoint alerts are POSTed to, as JSON.
	URL string `validate:"omitempty,url"`
	// Timeout bounds each delivery attempt.
	Timeout time.Duration `validate:"min=100ms"`
}

// RedisConfiguration describes the redis sink.
type RedisConfiguration struct {
	// Server is the address of the redis server.
	Server string `validate:"omitempty,listen"`
	// Username is the username to authenticate with.
	Username string
	// Password is the password to authenticate with.
	Password string
	// DB is the database number to use.
	DB int
	// Channel is the pubsub channel alerts are published to.
	Channel string
}

// DefaultConfiguration is the default configuration of the alert
// dispatcher.
func DefaultConfiguration() Configuration {
	return Configuration{
		Buffer:      64,
		RecentCount: 100,
		Webhook: WebhookConfiguration{
			Timeout: 5 * time.Second,
		},
		Redis: RedisConfiguration{
			Channel: "dosguard:alerts",
		},
	}
}
