package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgstrings "foodrescue/pkg/platform/strings"
)

const (
	// NetworkMessage is shown when the request never produced a response.
	NetworkMessage = "Network error. Please check your connection."
	// DefaultMessage is the last resort when a rejection carries no text at all.
	DefaultMessage = "An error occurred"
)

// Error is the single failure shape returned by the gateway. Callers render
// Message as-is; the backend's error body is never exposed.
type Error struct {
	Message string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	cause  error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the transport or decode failure behind the message, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status carried by a gateway error, or 0.
func StatusCode(err error) int {
	var gw *Error
	if errors.As(err, &gw) {
		return gw.Status
	}
	return 0
}

// IsUnauthorized reports whether the server rejected the bearer credential.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNetwork reports whether the call failed before any response arrived.
func IsNetwork(err error) bool {
	var gw *Error
	return errors.As(err, &gw) && gw.Status == 0
}

// Extractor pulls a human-readable message out of a decoded error body.
// It returns false when the body does not carry what it looks for.
type Extractor func(body map[string]any) (string, bool)

// DefaultExtractors is the order in which error bodies are inspected.
// The first extractor that finds a message wins.
var DefaultExtractors = []Extractor{
	Field("detail"),
	Field("message"),
	Field("error"),
}

// Field extracts a message from a top-level key. Strings are used exactly as
// sent; empty strings, zero and false count as absent. Lists (FastAPI
// validation errors) are flattened to their distinct "msg" entries.
func Field(name string) Extractor {
	return func(body map[string]any) (string, bool) {
		v, ok := body[name]
		if !ok {
			return "", false
		}
		msg := messageFrom(v)
		return msg, msg != ""
	}
}

func messageFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if msg := messageFrom(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return pkgstrings.JoinDistinct(parts, "; ")
	case map[string]any:
		for _, key := range []string{"msg", "message", "detail"} {
			if msg := messageFrom(t[key]); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// ExtractMessage runs the extractors over a decoded body and falls back to
// the transport status text, then to DefaultMessage.
func ExtractMessage(body any, statusText string, extractors []Extractor) string {
	if obj, ok := body.(map[string]any); ok {
		for _, extract := range extractors {
			if msg, ok := extract(obj); ok {
				return msg
			}
		}
	}
	if statusText != "" {
		return statusText
	}
	return DefaultMessage
}

// statusText returns the reason phrase of a response ("Not Found"), preferring
// what the server sent over the canonical text.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func malformed(status int, text string, cause error) *Error {
	return &Error{
		Status:  status,
		Message: strings.TrimSpace(fmt.Sprintf("Server error: %d %s", status, text)),
		cause:   cause,
	}
}

func network(cause error) *Error {
	return &Error{Message: NetworkMessage, cause: cause}
}
