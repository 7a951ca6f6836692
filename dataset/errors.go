// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies download failures.
type ErrorType int

const (
	// ErrorTypeUnknown unknown error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotFound the dataset is no longer published at its URL.
	ErrorTypeNotFound
	// ErrorTypeRateLimit the server asks us to slow down.
	ErrorTypeRateLimit
	// ErrorTypeUnavailable the server is temporarily unavailable.
	ErrorTypeUnavailable
	// ErrorTypeNetwork the request could not be sent.
	ErrorTypeNetwork
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNotFound:
		return "not found"
	case ErrorTypeRateLimit:
		return "rate limited"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeNetwork:
		return "network error"
	default:
		return "unknown"
	}
}

// DatasetError is a failed dataset download.
type DatasetError struct {
	Type    ErrorType
	Dataset string
	Message string
	Err     error
}

func (e *DatasetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Dataset, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Dataset, e.Message)
}

func (e *DatasetError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether downloading again later may succeed.
func IsRetryable(err error) bool {
	var dsErr *DatasetError
	if !errors.As(err, &dsErr) {
		return false
	}

	switch dsErr.Type {
	case ErrorTypeRateLimit, ErrorTypeUnavailable, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// ClassifyHTTPError turns a non 2xx status into a DatasetError.
func ClassifyHTTPError(dataset string, statusCode int) *DatasetError {
	switch statusCode {
	case http.StatusNotFound, http.StatusGone: // 404, 410
		return &DatasetError{
			Type:    ErrorTypeNotFound,
			Dataset: dataset,
			Message: fmt.Sprintf("not published anymore (status %d)", statusCode),
		}
	case http.StatusTooManyRequests: // 429
		return &DatasetError{
			Type:    ErrorTypeRateLimit,
			Dataset: dataset,
			Message: "rate limit reached",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &DatasetError{
			Type:    ErrorTypeUnavailable,
			Dataset: dataset,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &DatasetError{
			Type:    ErrorTypeUnknown,
			Dataset: dataset,
			Message: fmt.Sprintf("unexpected status %d", statusCode),
		}
	}
}
