// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bus

import "sync"

// Memory is an in-process bus. Publish calls every handler of the topic
// synchronously, in subscription order, before returning.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
}

// NewMemory creates an empty in-process bus
func NewMemory() *Memory {
	return &Memory{handlers: make(map[string][]Handler)}
}

// Publish delivers a copy of payload to every handler subscribed to topic
func (m *Memory) Publish(topic string, payload []byte) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	handlers := append([]Handler(nil), m.handlers[topic]...)
	m.mu.RUnlock()

	for _, h := range handlers {
		h(topic, append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe adds h to the handlers of topic
func (m *Memory) Subscribe(topic string, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.handlers[topic] = append(m.handlers[topic], h)
	return nil
}

// Close drops all subscriptions
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.handlers = nil
	return nil
}
