// Copyright 2026 The Sigstore APIs Authors. All Rights Reserved.
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

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/trailofbits/sigstore-apis/entry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when the requested index or UUID is not in the log.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery is returned when a request is rejected before, or by, the
	// service because its parameters can never be satisfied.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotAvailable is returned when the log cannot yet serve a state at or
	// beyond the requested index.
	ErrNotAvailable = errors.New("not available")
	// ErrServiceUnavailable is returned when a service could not be reached or
	// failed to handle the request.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrAlreadyExists is returned when a submitted entry is already in the log.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidResponse is returned when a service answers with something
	// which does not satisfy the API contract.
	ErrInvalidResponse = errors.New("invalid response")
)

// Error is returned by every client operation.
//
// Err is one of the sentinel errors above, a context error, or an
// *entry.DecodingError. Cause holds the underlying transport error, if any.
type Error struct {
	// Op is the name of the operation which failed, e.g. "getLogEntryByIndex".
	Op string
	// Subject identifies the offending input: an index, UUID or field path.
	Subject string
	// Detail is a human readable description of the failure.
	Detail string
	Err    error
	Cause  error
}

// Errorf returns an *Error for op wrapping err, with a formatted detail message.
func Errorf(op, subject string, err error, format string, args ...any) *Error {
	return &Error{Op: op, Subject: subject, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Subject != "" {
		msg = fmt.Sprintf("%s(%s)", msg, e.Subject)
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Err)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to see both Err and Cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// GRPCStatus allows status.Code to classify the error.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(Code(e.Err), e.Error())
}

// Code maps err onto the closest gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidQuery):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotAvailable):
		return codes.FailedPrecondition
	case errors.Is(err, ErrServiceUnavailable):
		return codes.Unavailable
	case errors.Is(err, ErrAlreadyExists):
		return codes.AlreadyExists
	case errors.Is(err, ErrInvalidResponse):
		return codes.Internal
	case errors.Is(err, entry.ErrDecoding):
		return codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}

// Retriable returns true for failures which may succeed if the same request is
// made again later. The clients never retry by themselves.
func Retriable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrNotAvailable)
}
