package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
)

// ErrTimeout indicates a page request that ran out of time.
type ErrTimeout struct {
	Page string
	Err  error
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("timeout fetching %s: %v", e.Page, e.Err)
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates the page host could not be reached.
type ErrConnection struct {
	Page string
	Err  error
}

func (e ErrConnection) Error() string {
	return fmt.Sprintf("connection fetching %s: %v", e.Page, e.Err)
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrStatus indicates an HTTP error status for a page request.
type ErrStatus struct {
	Page string
	Code int
	Err  error
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("status %d fetching %s: %v", e.Code, e.Page, e.Err)
}

func (e ErrStatus) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status may succeed on a later attempt.
func (e ErrStatus) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// ErrLocal indicates a local page file that could not be read.
type ErrLocal struct {
	Page string
	Err  error
}

func (e ErrLocal) Error() string {
	return fmt.Sprintf("read page %s: %v", e.Page, e.Err)
}

func (e ErrLocal) Unwrap() error {
	return e.Err
}

// ErrorType labels err with its error category.
func ErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrStatus
	if errors.As(err, &status) {
		switch status.Code {
		case http.StatusForbidden:
			return "forbidden"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		}
		if status.Code >= http.StatusInternalServerError {
			return "server_error"
		}
		return "http_status"
	}
	var local ErrLocal
	if errors.As(err, &local) {
		if errors.Is(local.Err, fs.ErrNotExist) {
			return "not_found"
		}
		return "local"
	}
	return "other"
}

// retryable reports whether a classified error is worth another attempt.
func retryable(err error) bool {
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return true
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return true
	}
	var status ErrStatus
	if errors.As(err, &status) {
		return status.Retryable()
	}
	return false
}

func classifyError(page string, err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Page: page, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Page: page, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Page: page, Err: err}
	}

	if statusCode >= http.StatusBadRequest {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		return ErrStatus{Page: page, Code: statusCode, Err: wrapped}
	}

	if err == nil {
		return nil
	}
	return err
}
