package membershipapi

import (
	"encoding/json"
	"errors"
	"strings"
)

// Error is returned when the backend answers with a non-2xx status.
// Detail holds the server supplied message, or a generic fallback when the
// body carried none.
type Error struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return e.Detail
}

// IsError reports whether err (or anything it wraps) is an *Error.
func IsError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}

// parseDetail pulls the `detail` field out of an error body. The backend sends
// either a plain string or, for request validation failures, a list of
// objects with a `msg` field.
func parseDetail(body []byte) string {
	var parsed errorBody
	err := json.Unmarshal(body, &parsed)
	if err != nil || len(parsed.Detail) == 0 {
		return ""
	}

	var detail string
	err = json.Unmarshal(parsed.Detail, &detail)
	if err == nil {
		return detail
	}

	var list []validationDetail
	err = json.Unmarshal(parsed.Detail, &list)
	if err != nil {
		return ""
	}
	msgs := make([]string, 0, len(list))
	for _, d := range list {
		if d.Msg != "" {
			msgs = append(msgs, d.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}

func newError(endpoint string, status int, body []byte, fallback string) *Error {
	detail := parseDetail(body)
	if detail == "" {
		detail = fallback
	}
	return &Error{
		Endpoint:   endpoint,
		StatusCode: status,
		Detail:     detail,
	}
}
