package contracts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fetch failure
// ⭐ SSOT: 取得エラーの分類はここだけ
type ErrorKind string

const (
	// KindNoData means the call succeeded but returned no records.
	// Valid empty result, not a failure.
	KindNoData ErrorKind = "no_data"

	// KindRateLimited means the API answered 429.
	KindRateLimited ErrorKind = "rate_limited"

	// KindAPIError means the API answered any other non-200 status.
	KindAPIError ErrorKind = "api_error"

	// KindTransportError means the request or response parsing failed.
	KindTransportError ErrorKind = "transport_error"

	// KindUnrecognizedSchema means the response (or a record kind) did not
	// match any known vocabulary.
	KindUnrecognizedSchema ErrorKind = "unrecognized_schema"

	// KindDependencyUnavailable means a required upstream dataset (the
	// security master) could not be loaded.
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
)

// FetchError is the typed failure returned by the API client, the fetchers
// and the market aggregator. Callers branch on Kind; Detail is for humans.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int // set for KindAPIError
	Detail     string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

// Unwrap exposes the wrapped cause
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NoDataError reports a valid empty result
func NoDataError(detail string) *FetchError {
	return &FetchError{Kind: KindNoData, Detail: detail}
}

// RateLimitedError reports an HTTP 429
func RateLimitedError(detail string) *FetchError {
	return &FetchError{Kind: KindRateLimited, StatusCode: 429, Detail: detail}
}

// APIError reports a non-200, non-429 status
func APIError(statusCode int, detail string) *FetchError {
	return &FetchError{Kind: KindAPIError, StatusCode: statusCode, Detail: detail}
}

// TransportError reports a network or parse failure
func TransportError(detail string, err error) *FetchError {
	return &FetchError{Kind: KindTransportError, Detail: detail, Err: err}
}

// SchemaError reports an unrecognized response or record shape
func SchemaError(detail string) *FetchError {
	return &FetchError{Kind: KindUnrecognizedSchema, Detail: detail}
}

// DependencyError reports a missing hard dependency
func DependencyError(detail string, err error) *FetchError {
	return &FetchError{Kind: KindDependencyUnavailable, Detail: detail, Err: err}
}

// KindOf returns the ErrorKind of err, or "" for plain errors
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsNoData reports whether err is a valid-empty result
func IsNoData(err error) bool {
	return KindOf(err) == KindNoData
}

// IsRateLimited reports whether err is an HTTP 429
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
