// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies an adapter failure for the cascade controller.
// Adapters never surface raw upstream errors; every ordinary failure mode
// is folded into one of these kinds.
type ErrorKind string

const (
	// KindMissingCredential marks a tier skipped because no credential resolved.
	KindMissingCredential ErrorKind = "missing_credential"

	// KindTransport covers network failures, timeouts and 5xx upstream status.
	KindTransport ErrorKind = "transport"

	// KindQuota covers rate-limit and quota-exhaustion signals.
	KindQuota ErrorKind = "quota"

	// KindAuth covers rejected or invalid credentials.
	KindAuth ErrorKind = "auth"

	// KindEmptyResponse covers well-formed replies that carry no usable text.
	KindEmptyResponse ErrorKind = "empty_response"

	// KindUnexpected marks an adapter contract violation. It is logged loudly
	// and treated as a bug, not business as usual.
	KindUnexpected ErrorKind = "unexpected"
)

// Error is the uniform failure type returned by every adapter.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a classified provider error.
func NewError(kind ErrorKind, providerName string, err error) *Error {
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// KindOf extracts the classification from an error. Unclassified errors
// report KindUnexpected.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}

// quotaMarkers are substrings providers use to signal quota exhaustion in
// response bodies that do not carry a 429 status.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"billing",
}

// ClassifyStatus folds a non-2xx upstream status into the error taxonomy.
func ClassifyStatus(providerName string, status int, body []byte) *Error {
	reason := fmt.Errorf("upstream status %d: %s", status, truncate(string(body), 256))

	switch {
	case status == 401 || status == 403:
		return NewError(KindAuth, providerName, reason)
	case status == 402 || status == 429:
		return NewError(KindQuota, providerName, reason)
	}

	lower := strings.ToLower(string(body))
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return NewError(KindQuota, providerName, reason)
		}
	}

	return NewError(KindTransport, providerName, reason)
}

// ClassifyErr folds a transport-level error into the taxonomy. Context
// cancellation and deadline expiry count as transport failures so the
// cascade moves on to the next tier.
func ClassifyErr(providerName string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return NewError(KindTransport, providerName, err)
	}

	return NewError(KindUnexpected, providerName, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
