// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link provides message-oriented connections to the two sides of the
// bridge: a serial port to the firmware controller and a WebSocket to the
// supervisory controller.
package link

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
)

// Connection reads and writes whole messages
type Connection interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// ErrConnectionClosed is returned when reading from a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// Framing selects how messages are delimited on a byte stream
type Framing int

const (
	// FramingLines delimits messages with a newline (JSON text)
	FramingLines Framing = iota
	// FramingCBOR relies on CBOR items being self-delimiting
	FramingCBOR
)

// MaxMessageSize bounds a single line-framed message
const MaxMessageSize = 64 * 1024

// StreamConnection frames messages over any byte stream
type StreamConnection struct {
	rw      io.ReadWriteCloser
	framing Framing
	reader  *bufio.Reader
	cborDec *cbor.Decoder
	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewStreamConnection wraps a byte stream with the given framing
func NewStreamConnection(rw io.ReadWriteCloser, framing Framing) *StreamConnection {
	s := &StreamConnection{
		rw:      rw,
		framing: framing,
		reader:  bufio.NewReaderSize(rw, 4096),
	}
	if framing == FramingCBOR {
		s.cborDec = cbor.NewDecoder(s.reader)
	}
	return s
}

// ReadMessage blocks until one complete message has been read.
// Blank lines are skipped in line framing.
func (s *StreamConnection) ReadMessage() ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrConnectionClosed
	}

	if s.framing == FramingCBOR {
		var raw cbor.RawMessage
		if err := s.cborDec.Decode(&raw); err != nil {
			return nil, s.readErr(err)
		}
		return []byte(raw), nil
	}

	for {
		line, err := s.readLine()
		if err != nil {
			return nil, s.readErr(err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// readLine reads up to the next newline, failing on oversize lines
func (s *StreamConnection) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > MaxMessageSize {
			return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

func (s *StreamConnection) readErr(err error) error {
	if errors.Is(err, io.EOF) {
		s.closed.Store(true)
		return ErrConnectionClosed
	}
	return err
}

// WriteMessage writes one framed message
func (s *StreamConnection) WriteMessage(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	frame := data
	if s.framing == FramingLines {
		frame = make([]byte, 0, len(data)+1)
		frame = append(frame, data...)
		frame = append(frame, '\n')
	}
	_, err := s.rw.Write(frame)
	return err
}

// Close closes the underlying stream
func (s *StreamConnection) Close() error {
	s.closed.Store(true)
	return s.rw.Close()
}

// OpenSerialConnection opens a serial port to the firmware controller
func OpenSerialConnection(portName string, baudRate int, framing Framing) (*StreamConnection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return NewStreamConnection(port, framing), nil
}

// WebSocketConnection carries one message per WebSocket frame
type WebSocketConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewWebSocketConnection wraps an established WebSocket
func NewWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	return &WebSocketConnection{conn: conn}
}

// ReadMessage returns the next text or binary frame
func (w *WebSocketConnection) ReadMessage() ([]byte, error) {
	if w.closed.Load() {
		return nil, ErrConnectionClosed
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed.Store(true)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrConnectionClosed
			}
			return nil, err
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

// WriteMessage sends data as one text frame
func (w *WebSocketConnection) WriteMessage(data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the WebSocket
func (w *WebSocketConnection) Close() error {
	w.closed.Store(true)
	return w.conn.Close()
}

// OpenWebSocketConnection dials the supervisory controller with optional HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return NewWebSocketConnection(conn), nil
}
