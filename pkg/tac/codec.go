// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec turns messages into bytes and back.
// The control side always uses JSON; the device link may use JSON or CBOR.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Codec names
const (
	CodecNameJSON = "json"
	CodecNameCBOR = "cbor"
)

// JSON is the text codec used on the control side and, by default, the device side
var JSON Codec = jsonCodec{}

// CBOR is the binary codec for device links that carry CBOR maps instead of JSON.
// Struct fields are keyed by their json tags, so both codecs share one schema.
var CBOR Codec = newCBORCodec()

// CodecByName returns the codec registered under name
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecNameJSON:
		return JSON, nil
	case CodecNameCBOR:
		return CBOR, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (use %s or %s)", name, CodecNameJSON, CodecNameCBOR)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecNameJSON }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	// Sorted keys keep encodings deterministic.
	enc, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("tac: cbor encode mode: %v", err))
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("tac: cbor decode mode: %v", err))
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string { return CodecNameCBOR }

func (c cborCodec) Marshal(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte, v interface{}) error {
	return c.dec.Unmarshal(data, v)
}
