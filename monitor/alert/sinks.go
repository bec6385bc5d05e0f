// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// runSink drains a subscription until the component dies, handing each
// event to deliver. Delivery errors are counted, not fatal.
func (c *Component) runSink(name string, deliver func(Event) error) {
	events, unsubscribe := c.Subscribe(name)
	c.t.Go(func() error {
		defer unsubscribe()
		for {
			select {
			case <-c.t.Dying():
				return nil
			case event := <-events:
				if err := deliver(event); err != nil {
					c.metrics.sinkError.WithLabelValues(name).Inc()
					c.r.Err(err).Str("sink", name).Msg("cannot deliver alert")
				}
			}
		}
	})
}

// startLogSink logs every alert through the reporter, mirroring the
// usual security alert log file.
func (c *Component) startLogSink() {
	c.runSink("log", func(event Event) error {
		level := zerolog.InfoLevel
		switch event.Severity {
		case SeverityWarning:
			level = zerolog.WarnLevel
		case SeverityError, SeverityCritical:
			level = zerolog.ErrorLevel
		}
		l := c.r.WithLevel(level).
			Stringer("id", event.ID).
			Str("severity", string(event.Severity)).
			Str("kind", event.Kind)
		if event.Port != 0 {
			l = l.Uint16("port", event.Port)
		}
		if event.IP.IsValid() {
			l = l.Stringer("ip", event.IP)
		}
		l.Msg(event.Message)
		return nil
	})
}

// startWebhookSink POSTs every alert to the configured URL as JSON.
func (c *Component) startWebhookSink() {
	client := &http.Client{Timeout: c.config.Webhook.Timeout}
	c.runSink("webhook", func(event Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("cannot encode alert: %w", err)
		}
		resp, err := client.Post(c.config.Webhook.URL, "application/json",
			bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("cannot post alert: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("cannot post alert: status %d", resp.StatusCode)
		}
		return nil
	})
}

// startRedisSink publishes every alert to a redis pubsub channel.
func (c *Component) startRedisSink() error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.config.Redis.Server,
		Username: c.config.Redis.Username,
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	})
	if err := client.Ping(c.t.Context(nil)).Err(); err != nil {
		client.Close()
		return fmt.Errorf("cannot connect to redis server %s: %w",
			c.config.Redis.Server, err)
	}
	c.t.Go(func() error {
		<-c.t.Dying()
		return client.Close()
	})
	c.runSink("redis", func(event Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("cannot encode alert: %w", err)
		}
		if err := client.Publish(c.t.Context(nil), c.config.Redis.Channel,
			payload).Err(); err != nil {
			return fmt.Errorf("cannot publish alert: %w", err)
		}
		return nil
	})
	return nil
}
