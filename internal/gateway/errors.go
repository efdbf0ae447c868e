package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// Kind classifies a gateway failure.
type Kind string

// Failure kinds reported by the gateway.
const (
	KindTransport    Kind = "transport"
	KindTimeout      Kind = "timeout"
	KindCanceled     Kind = "canceled"
	KindAuth         Kind = "auth"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindBusiness     Kind = "business"
	KindServer       Kind = "server"
	KindDecode       Kind = "decode"
	KindMissingToken Kind = "missing_token"
)

// messageFields is the ordered list of body fields consulted for a
// human-readable message.
var messageFields = []string{"message", "error"}

var defaultMessages = map[Kind]string{
	KindTransport:    "Cannot connect to server",
	KindTimeout:      "Request timed out",
	KindCanceled:     "Request canceled",
	KindAuth:         "Unauthorized: Invalid or missing token",
	KindForbidden:    "You don't have permission to perform this action",
	KindNotFound:     "Resource not found or not owned by teacher",
	KindBusiness:     "Request failed",
	KindServer:       "Server error, please try again later",
	KindDecode:       "Unexpected response from server",
	KindMissingToken: "No token found",
}

// Error is the normalised failure returned by every gateway operation.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Status  int
	Detail  json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, or "" when err is not a gateway error.
func KindOf(err error) Kind {
	if gerr, ok := AsError(err); ok {
		return gerr.Kind
	}
	return ""
}

// IsAuth reports whether err means the session is no longer valid, so the
// caller should route the user back to login.
func IsAuth(err error) bool {
	kind := KindOf(err)
	return kind == KindAuth || kind == KindMissingToken
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// DecodeError builds the normalised failure for a response status and body,
// or for a transport error when no response was received. The message is the
// first available of: body "message", body "error", transport error text,
// the default for the kind.
func DecodeError(status int, body []byte, transportErr error) *Error {
	kind := kindFor(status, transportErr)
	gerr := &Error{Kind: kind, Status: status, Err: transportErr}

	if len(body) > 0 && json.Valid(body) {
		gerr.Detail = json.RawMessage(append([]byte(nil), body...))
	}

	if msg := messageFromBody(body); msg != "" {
		gerr.Message = msg
	} else if transportErr != nil && strings.TrimSpace(transportErr.Error()) != "" {
		gerr.Message = transportErr.Error()
	} else {
		gerr.Message = defaultMessages[kind]
	}
	return gerr
}

// MissingToken is the precondition failure for a protected operation invoked
// without a session token.
func MissingToken(op string) *Error {
	gerr := newError(KindMissingToken, nil)
	gerr.Op = op
	return gerr
}

func newError(kind Kind, err error) *Error {
	msg := defaultMessages[kind]
	return &Error{Kind: kind, Message: msg, Err: err}
}

func kindFor(status int, transportErr error) Kind {
	if status == 0 {
		switch {
		case errors.Is(transportErr, context.DeadlineExceeded):
			return KindTimeout
		case errors.Is(transportErr, context.Canceled):
			return KindCanceled
		default:
			return KindTransport
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindBusiness
	}
}

func messageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	for _, name := range messageFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if msg := stringField(raw); msg != "" {
			return msg
		}
	}
	return ""
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

var (
	uncaughtPattern    = regexp.MustCompile(`Uncaught Error:\s*(.+?)(?:\n|$)`)
	serverErrorPattern = regexp.MustCompile(`Server Error(?:\\n|\s)+(.*?)(?:\n|$)`)
)

// FriendlyMessage extracts the inner message a server embedded after a
// known marker phrase, falling back to msg itself.
func FriendlyMessage(msg string) string {
	switch {
	case strings.Contains(msg, "Uncaught Error"):
		if m := uncaughtPattern.FindStringSubmatch(msg); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	case strings.Contains(msg, "Server Error"):
		if m := serverErrorPattern.FindStringSubmatch(msg); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return msg
}
