// Package api provides the HTTP client for the storage server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
)

// ErrEmptyBaseURL is returned by NewClient when no API base URL is configured.
var ErrEmptyBaseURL = errors.New("API base URL is empty")

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// APIError is a non-2xx response from the storage server.
// Detail is the server's "detail" message when the body carried one, otherwise
// the raw body text.
type APIError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

// newAPIError reads resp's body and builds an APIError from it.
func newAPIError(op string, resp *nethttp.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(body),
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.Path = resp.Request.URL.Path
	}
	return apiErr
}

// parseDetail extracts {"detail": ...}. A string detail is returned as is; any
// other JSON detail (validation error lists) is returned compacted.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		return string(envelope.Detail)
	}
	return strings.TrimSpace(string(body))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, nethttp.StatusNotFound)
}

// IsConflict reports whether err indicates a name clash: a 409, or a 400 whose
// detail says the name already exists.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == nethttp.StatusConflict {
		return true
	}
	detail := strings.ToLower(apiErr.Detail)
	return apiErr.StatusCode == nethttp.StatusBadRequest &&
		(strings.Contains(detail, "already exists") || strings.Contains(detail, "duplicate"))
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Message returns the text to show a user for err: the server's detail for
// API errors, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
