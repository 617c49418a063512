// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tac

import (
	"errors"
	"fmt"
	"strings"
)

// Decode errors. Every inbound message failing with one of these is dropped.
var (
	ErrMalformed     = errors.New("malformed message")
	ErrMissingAction = errors.New("no action in message")
	ErrUnknownAction = errors.New("invalid action")
	ErrMissingParams = errors.New("no params in message")
	ErrInvalidParams = errors.New("invalid params")
)

// IncompleteConfigError is returned when a parameter push is attempted while one
// or more required parameters are still unknown
type IncompleteConfigError struct {
	Missing []string
}

func (e *IncompleteConfigError) Error() string {
	return fmt.Sprintf("one or more parameters not received: %s", strings.Join(e.Missing, ", "))
}

// ErrorKind returns a short stable name for a protocol error, for counters and logs.
// Unknown errors map to "other".
func ErrorKind(err error) string {
	var incomplete *IncompleteConfigError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrMissingAction):
		return "missing_action"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, ErrMissingParams):
		return "missing_params"
	case errors.Is(err, ErrInvalidParams):
		return "invalid_params"
	case errors.As(err, &incomplete):
		return "incomplete_config"
	default:
		return "other"
	}
}
