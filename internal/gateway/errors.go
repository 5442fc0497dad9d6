// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call so callers can branch on the
// category without inspecting status codes themselves.
type ErrorKind int

const (
	// KindNetwork means the request never produced a response: DNS
	// failure, refused connection, timeout, cancelled context.
	KindNetwork ErrorKind = iota

	// KindUnauthorized means the server rejected our credentials
	// (sign-in failure, expired or invalid token).
	KindUnauthorized

	// KindServer means the server answered with a non-success status
	// for any other reason.
	KindServer

	// KindValidation means the request was rejected locally before it
	// was sent, because the payload failed validation.
	KindValidation
)

// String implements fmt.Stringer for log output.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error type returned by Gateway operations.
// Message is always suitable for showing to the operator verbatim.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status code; 0 when no response was received
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a gateway error caused by
// rejected credentials.
func IsUnauthorized(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindUnauthorized
}

// IsNetwork reports whether err is a gateway error where no response
// arrived at all.
func IsNetwork(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindNetwork
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindValidation
}

// UserMessage extracts the operator-facing message from err. For gateway
// errors that is the classified message; anything else falls back to the
// plain error text.
func UserMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
