package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// ErrNotAdmin is returned when the backend authenticates an account that does
// not hold the administrative role.
var ErrNotAdmin = errors.New("not an admin")

// ErrInvalidInput wraps request validation failures caught before sending.
var ErrInvalidInput = errors.New("invalid input")

// StatusError is returned for every reply with status >= 400.
type StatusError struct {
	Method      string
	Path        string
	StatusCode  int
	Code        model.ErrorCode
	Message     string
	ContentType string // as sent by the backend
	Body        []byte
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.Path, e.StatusCode, msg, e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsUnauthorized reports whether err is a 401 reply.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsTokenExpired reports whether err is a 401 reply classified as an expired
// token.
func IsTokenExpired(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized && se.Code == model.ErrTokenExpired
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// newStatusError decodes the backend error body. Two shapes are accepted:
// {"code":"...","error":"..."} and {"error":{"code":"...","message":"..."}}.
// Bodies that are not JSON are kept as the message.
func newStatusError(req *http.Request, resp *http.Response, body []byte) *StatusError {
	e := &StatusError{
		Method:      req.Method,
		Path:        req.URL.Path,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}

	var raw struct {
		Code    model.ErrorCode `json:"code"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}
	e.Code = raw.Code
	e.Message = raw.Message

	if len(raw.Error) > 0 {
		var s string
		if json.Unmarshal(raw.Error, &s) == nil {
			e.Message = s
		} else {
			var nested struct {
				Code    model.ErrorCode `json:"code"`
				Message string          `json:"message"`
			}
			if json.Unmarshal(raw.Error, &nested) == nil {
				if e.Code == "" {
					e.Code = nested.Code
				}
				if nested.Message != "" {
					e.Message = nested.Message
				}
			}
		}
	}
	return e
}
