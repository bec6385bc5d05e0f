// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package intake

// Configuration describes the configuration of the traffic event
// intake.
type Configuration struct {
	// QueueSize is the depth of the bounded event queue between
	// producers and the tracker.
	QueueSize int `validate:"min=1"`
	// Workers is the number of goroutines draining the queue.
	Workers int `validate:"min=1"`
	// RateLimit caps the events per second accepted from one source
	// address. 0 disables the limit.
	RateLimit int `validate:"min=0"`
}

// DefaultConfiguration is the default configuration of the traffic
// event intake.
func DefaultConfiguration() Configuration {
	return Configuration{
		QueueSize: 8192,
		Workers:   2,
	}
}
