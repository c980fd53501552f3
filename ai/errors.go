// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrDispatch matches every *DispatchError via errors.Is.
	ErrDispatch = errors.New("batch dispatch failed")

	// ErrResponseShape matches dispatch errors caused by a malformed provider response.
	ErrResponseShape = errors.New("malformed provider response")

	// ErrUnknownProvider is returned when a Config names a provider that does not exist.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// ErrorKind classifies why a batch could not be embedded.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindShape     ErrorKind = "shape"
	KindTimeout   ErrorKind = "timeout"
	KindModel     ErrorKind = "model"
	KindCanceled  ErrorKind = "canceled"
)

// DispatchError is returned by embedders when a batch fails.
type DispatchError struct {
	Kind       ErrorKind
	StatusCode int // set for KindStatus
	Message    string
	Err        error
}

// NewDispatchError creates a DispatchError of the given kind.
func NewDispatchError(kind ErrorKind, message string, err error) *DispatchError {
	return &DispatchError{Kind: kind, Message: message, Err: err}
}

func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("embedding %s error", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrDispatch for every kind and ErrResponseShape for shape errors.
func (e *DispatchError) Is(target error) bool {
	switch target {
	case ErrDispatch:
		return true
	case ErrResponseShape:
		return e.Kind == KindShape
	}
	return false
}

// ClassifyError converts an arbitrary embedder error into a *DispatchError.
// Errors that already are dispatch errors pass through unchanged.
func ClassifyError(err error) *DispatchError {
	if err == nil {
		return nil
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewDispatchError(KindTimeout, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewDispatchError(KindCanceled, "request canceled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewDispatchError(KindTimeout, "request timed out", err)
	}
	return NewDispatchError(KindTransport, "", err)
}
