package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FetchError is returned when RT-CV answers with an HTTP status >= 400.
type FetchError struct {
	Path     string
	Status   int
	Response string
	// Parsed holds the JSON decoded response body, nil when the body is not JSON.
	Parsed any
}

// NewFetchError builds a FetchError and makes a best-effort attempt at
// decoding the raw body as JSON.
func NewFetchError(path string, status int, response string) *FetchError {
	fe := &FetchError{Path: path, Status: status, Response: response}
	var parsed any
	if err := json.Unmarshal([]byte(response), &parsed); err == nil {
		fe.Parsed = parsed
	}
	return fe
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rtcv %s responded with status %d: %s", e.Path, e.Status, strings.TrimSpace(e.Response))
}

// Kind returns the structured error kind from the parsed body, if any.
func (e *FetchError) Kind() string {
	body, ok := e.Parsed.(map[string]any)
	if !ok {
		return ""
	}
	kind, _ := body["kind"].(string)
	return kind
}

// TransportError is returned when a call never produced an HTTP response,
// for example on a network failure or when the request timeout expires.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rtcv %s request failed: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a backend error that will keep failing
// no matter how often it is retried.
func IsPermanent(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status < 400 {
		return false
	}
	kind := fe.Kind()
	if kind == "" {
		return false
	}
	switch {
	case strings.HasPrefix(kind, "AUTH_"):
		return true
	case kind == "INPUT_VALIDATION", kind == "BOGUS_FORM_DATA", kind == "APP_INTERNAL_CONFIG":
		return true
	default:
		return false
	}
}
