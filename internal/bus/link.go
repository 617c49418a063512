// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Thermoquad/tacbridge/internal/link"
)

// Dialer opens a fresh connection to one side of the bridge
type Dialer func() (link.Connection, error)

// LinkOptions binds topics to two point-to-point connections
type LinkOptions struct {
	Control    Dialer
	ControlIn  string // read from the control connection
	ControlOut string // written to the control connection
	Device     Dialer
	DeviceIn   string
	DeviceOut  string
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *slog.Logger
}

// Link is a bus over direct connections instead of a broker. Each side owns
// one inbound and one outbound topic; other topics are rejected.
type Link struct {
	sides  []*side
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger
}

type side struct {
	name     string
	dial     Dialer
	inTopic  string
	outTopic string
	min, max time.Duration

	mu       sync.RWMutex
	conn     link.Connection
	closed   bool
	handlers []Handler
}

// NewLink dials both sides and starts their reader loops
func NewLink(opts LinkOptions) (*Link, error) {
	if opts.Control == nil || opts.Device == nil {
		return nil, errors.New("link: both control and device dialers are required")
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = time.Second
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Link{
		done:   make(chan struct{}),
		logger: logger,
		sides: []*side{
			{name: "control", dial: opts.Control, inTopic: opts.ControlIn, outTopic: opts.ControlOut, min: opts.MinBackoff, max: opts.MaxBackoff},
			{name: "device", dial: opts.Device, inTopic: opts.DeviceIn, outTopic: opts.DeviceOut, min: opts.MinBackoff, max: opts.MaxBackoff},
		},
	}

	for _, s := range l.sides {
		conn, err := s.dial()
		if err != nil {
			l.closeConns()
			return nil, fmt.Errorf("link: open %s connection: %w", s.name, err)
		}
		s.conn = conn
	}

	for _, s := range l.sides {
		l.wg.Add(1)
		go l.readerLoop(s)
	}
	return l, nil
}

// readerLoop reads messages from one side and reconnects when the connection fails
func (l *Link) readerLoop(s *side) {
	defer l.wg.Done()
	logger := l.logger.With("side", s.name)

	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		if conn != nil {
			data, err := conn.ReadMessage()
			if err == nil {
				s.deliver(data)
				continue
			}

			select {
			case <-l.done:
				return
			default:
			}
			logger.Warn("connection lost", "error", err)
			conn.Close()
			s.setConn(nil)
		}

		if !l.reconnect(s, logger) {
			return
		}
	}
}

// reconnect attempts to reconnect with exponential backoff.
// Returns false if the bus was closed while waiting.
func (l *Link) reconnect(s *side, logger *slog.Logger) bool {
	backoff := s.min
	for {
		select {
		case <-l.done:
			return false
		case <-time.After(backoff):
		}

		conn, err := s.dial()
		if err == nil {
			if !s.attach(conn) {
				return false
			}
			logger.Info("reconnected")
			return true
		}
		logger.Debug("reconnect failed", "error", err, "backoff", backoff)

		backoff *= 2
		if backoff > s.max {
			backoff = s.max
		}
	}
}

func (s *side) setConn(conn link.Connection) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// attach installs a freshly dialed connection. If the side was shut down
// meanwhile, conn is closed and false is returned.
func (s *side) attach(conn link.Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		conn.Close()
		return false
	}
	s.conn = conn
	return true
}

// shutdown marks the side closed and closes its current connection
func (s *side) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *side) deliver(data []byte) {
	s.mu.RLock()
	handlers := append([]Handler(nil), s.handlers...)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(s.inTopic, data)
	}
}

// Publish writes payload to the side whose outbound topic is topic
func (l *Link) Publish(topic string, payload []byte) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	for _, s := range l.sides {
		if s.outTopic != topic {
			continue
		}
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return fmt.Errorf("link: %s side not connected", s.name)
		}
		if err := conn.WriteMessage(payload); err != nil {
			return fmt.Errorf("link: write to %s: %w", s.name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}

// Subscribe registers h for the side whose inbound topic is topic
func (l *Link) Subscribe(topic string, h Handler) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	for _, s := range l.sides {
		if s.inTopic != topic {
			continue
		}
		s.mu.Lock()
		s.handlers = append(s.handlers, h)
		s.mu.Unlock()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}

// Close stops the reader loops and closes both connections
func (l *Link) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.closeConns()
		l.wg.Wait()
	})
	return nil
}

func (l *Link) closeConns() {
	for _, s := range l.sides {
		s.shutdown()
	}
}
