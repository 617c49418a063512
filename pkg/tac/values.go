// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"encoding/json"
	"math"
)

// Map value extraction helpers

// toFloat converts any numeric value produced by the JSON or CBOR decoders.
// Booleans and strings are not numeric.
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case float32:
		return toFloat(float64(val))
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// toNumber is toFloat with booleans read as 1 and 0
func toNumber(v interface{}) (float64, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return toFloat(v)
}

// isTrue reports whether v is boolean true or a number equal to 1
func isTrue(v interface{}) bool {
	f, ok := toNumber(v)
	return ok && f == 1
}

// GetMapFloat extracts a float64 from a decoded message by key
func GetMapFloat(m map[string]interface{}, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// GetMapString extracts a string from a decoded message by key
func GetMapString(m map[string]interface{}, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetMapBool extracts a bool from a decoded message by key
func GetMapBool(m map[string]interface{}, key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
