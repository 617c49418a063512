// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bus

import (
	"errors"
	"testing"
)

func TestMemory_DeliversInOrder(t *testing.T) {
	m := NewMemory()
	var got []string

	if err := m.Subscribe("a", func(topic string, payload []byte) {
		got = append(got, topic+":"+string(payload))
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for _, p := range []string{"1", "2", "3"} {
		if err := m.Publish("a", []byte(p)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	if err := m.Publish("b", []byte("ignored")); err != nil {
		t.Fatalf("Publish to topic without subscribers failed: %v", err)
	}

	want := []string{"a:1", "a:2", "a:3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemory_CopiesPayload(t *testing.T) {
	m := NewMemory()
	var received []byte
	m.Subscribe("t", func(_ string, payload []byte) { received = payload })

	buf := []byte("abc")
	m.Publish("t", buf)
	buf[0] = 'x'

	if string(received) != "abc" {
		t.Errorf("handler saw %q, want abc", received)
	}
}

func TestMemory_HandlerMayPublish(t *testing.T) {
	m := NewMemory()
	var echoed string
	m.Subscribe("in", func(_ string, payload []byte) {
		m.Publish("out", payload)
	})
	m.Subscribe("out", func(_ string, payload []byte) { echoed = string(payload) })

	m.Publish("in", []byte("ping"))
	if echoed != "ping" {
		t.Errorf("echoed = %q, want ping", echoed)
	}
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	m.Close()

	if err := m.Publish("t", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if err := m.Subscribe("t", func(string, []byte) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrClosed", err)
	}
}
