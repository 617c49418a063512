// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bus carries text or binary messages addressed by topic name.
//
// Implementations deliver messages of one topic in publish order. Handlers run
// on a transport goroutine and must not block for long.
package bus

import "errors"

// Handler receives one message published on topic
type Handler func(topic string, payload []byte)

// Publisher sends messages to a topic
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Subscriber registers handlers for a topic
type Subscriber interface {
	Subscribe(topic string, h Handler) error
}

// Bus is a topic-addressed publish/subscribe transport
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

var (
	// ErrClosed is returned by operations on a closed bus
	ErrClosed = errors.New("bus closed")
	// ErrUnknownTopic is returned when a transport cannot route a topic
	ErrUnknownTopic = errors.New("unknown topic")
)
