// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package proxyerr defines the error taxonomy shared by every component: a
// machine-readable code, its HTTP status, and an envelope the dispatcher
// serializes to JSON.
package proxyerr

import "fmt"

// Code is a machine-readable error code.
type Code string

const (
	CodeURLMalformed      Code = "URL_MALFORMED"
	CodeHostNotAllowed    Code = "HOST_NOT_ALLOWED"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeUpstream403       Code = "UPSTREAM_403"
	CodeNotFound          Code = "NOT_FOUND"
	CodeBadGateway        Code = "BAD_GATEWAY"
	CodeTimeout           Code = "TIMEOUT"
	CodeError             Code = "ERROR"
)

// Error is the structured error every component surfaces; the dispatcher
// maps it straight onto the JSON error envelope.
type Error struct {
	Code       Code
	HTTPStatus int
	Message    string
	Hint       string
	Host       string
	RetryAfter int // seconds; only meaningful for CodeRateLimitExceeded
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// New builds a plain Error.
func New(code Code, status int, message string) *Error {
	return &Error{Code: code, HTTPStatus: status, Message: message}
}

// Malformed builds a URL_MALFORMED/400 error.
func Malformed(reason string) *Error {
	return &Error{Code: CodeURLMalformed, HTTPStatus: 400, Message: reason, Hint: "check the url parameter"}
}

// HostNotAllowed builds a HOST_NOT_ALLOWED/403 error.
func HostNotAllowed(host string) *Error {
	return &Error{
		Code:       CodeHostNotAllowed,
		HTTPStatus: 403,
		Message:    fmt.Sprintf("host %q is not permitted", host),
		Host:       host,
	}
}

// RateLimited builds a RATE_LIMIT_EXCEEDED/429 error carrying retryAfter.
func RateLimited(retryAfter int) *Error {
	return &Error{
		Code:       CodeRateLimitExceeded,
		HTTPStatus: 429,
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}
}

// Timeout builds a TIMEOUT/504 error.
func Timeout(stage string) *Error {
	return &Error{Code: CodeTimeout, HTTPStatus: 504, Message: "timed out during " + stage}
}

// BadGateway builds a BAD_GATEWAY/502 error for connection/DNS failures.
func BadGateway(cause error) *Error {
	msg := "upstream connection failed"
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &Error{Code: CodeBadGateway, HTTPStatus: 502, Message: msg}
}

// Internal builds a generic ERROR/500 error for unclassified faults.
func Internal(cause error) *Error {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Code: CodeError, HTTPStatus: 500, Message: msg}
}

// FromUpstreamStatus classifies a non-2xx upstream HTTP status. 401 and 403
// both surface as UPSTREAM_403/403 — folding 401 into 403 avoids triggering
// a browser credential prompt on a media element that can't satisfy one
// anyway; see DESIGN.md for the tradeoff. 404 surfaces as NOT_FOUND/404;
// anything else passes the upstream status through under an UPSTREAM_<n>
// code.
func FromUpstreamStatus(status int, host string) *Error {
	switch status {
	case 401, 403:
		return &Error{Code: CodeUpstream403, HTTPStatus: 403, Message: "upstream rejected the request", Host: host}
	case 404:
		return &Error{Code: CodeNotFound, HTTPStatus: 404, Message: "upstream resource not found", Host: host}
	default:
		return &Error{
			Code:       Code(fmt.Sprintf("UPSTREAM_%d", status)),
			HTTPStatus: status,
			Message:    fmt.Sprintf("upstream returned status %d", status),
			Host:       host,
		}
	}
}
