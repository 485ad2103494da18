// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jolokia

import "fmt"

// Error is the Jolokia client error taxonomy from spec.md §4.3. Each
// classifier exposes IsRetryable and HTTPStatus, mirroring the teacher's
// %w-wrapping error style (cmd/frontend/internal/rule/client.go).
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP or Jolokia protocol status, 0 if not applicable
	Message string
	Cause   error
}

// ErrorKind enumerates the taxonomy named in spec.md §4.3.
type ErrorKind string

const (
	ErrHTTPClientInit    ErrorKind = "http_client_init"
	ErrHTTPRequest       ErrorKind = "http_request"
	ErrHTTPResponse      ErrorKind = "http_response"
	ErrHTTPStatus        ErrorKind = "http_status"
	ErrJSONParse         ErrorKind = "json_parse"
	ErrJolokiaError      ErrorKind = "jolokia_error"
	ErrMBeanNotFound     ErrorKind = "mbean_not_found"
	ErrInvalidObjectName ErrorKind = "invalid_object_name"
	ErrTimeout           ErrorKind = "timeout"
	ErrConnectionFailed  ErrorKind = "connection_failed"
	ErrMaxRetriesExceeded ErrorKind = "max_retries_exceeded"
	ErrAuthenticationFailed ErrorKind = "authentication_failed"
)

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("jolokia: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("jolokia: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the HTTP or Jolokia protocol status code carried by
// this error, 0 if none.
func (e *Error) HTTPStatus() int { return e.Status }

// IsRetryable reports whether a request producing this error should be
// retried per spec.md §4.3: transport failures, timeouts, generic I/O
// errors, and 5xx at either the HTTP or the Jolokia protocol layer.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case ErrHTTPRequest, ErrHTTPResponse, ErrTimeout, ErrConnectionFailed:
		return true
	case ErrHTTPStatus, ErrJolokiaError:
		return e.Status >= 500 && e.Status <= 599
	default:
		return false
	}
}

func newError(kind ErrorKind, status int, msg string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Cause: cause}
}
