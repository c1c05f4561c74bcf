package models

import (
	"net/url"
)

// ErrorCode is an RFC 6749 §4.1.2.1 authorization error code.
type ErrorCode string

const (
	ErrInvalidRequest          ErrorCode = "invalid_request"
	ErrUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrAccessDenied            ErrorCode = "access_denied"
	ErrUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrInvalidScope            ErrorCode = "invalid_scope"
	ErrServerError             ErrorCode = "server_error"
	ErrTemporarilyUnavailable  ErrorCode = "temporarily_unavailable"
)

var defaultDescriptions = map[ErrorCode]string{
	ErrInvalidRequest:          "The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed",
	ErrUnauthorizedClient:      "The client is not authorized to request an authorization code using this method",
	ErrAccessDenied:            "The resource owner or authorization server denied the request",
	ErrUnsupportedResponseType: "The authorization server does not support obtaining an authorization code using this method",
	ErrInvalidScope:            "The requested scope is invalid, unknown, or malformed",
	ErrServerError:             "The authorization server encountered an unexpected condition that prevented it from fulfilling the request",
	ErrTemporarilyUnavailable:  "The authorization server is currently unable to handle the request",
}

// RedirectError is a failure that occurred after redirect_uri was validated.
// It is always rendered as a 302 back to the client, never as a body.
type RedirectError struct {
	Code        ErrorCode
	Description string
	URI         string
	RedirectURI string
	State       string
	Err         error
}

// NewRedirectError builds a redirect error; an empty description falls back
// to the RFC text for code.
func NewRedirectError(code ErrorCode, description, redirectURI, state string) *RedirectError {
	if description == "" {
		description = defaultDescriptions[code]
	}
	return &RedirectError{Code: code, Description: description, RedirectURI: redirectURI, State: state}
}

// WrapRedirectError is NewRedirectError carrying an underlying cause.
func WrapRedirectError(err error, code ErrorCode, description, redirectURI, state string) *RedirectError {
	re := NewRedirectError(code, description, redirectURI, state)
	re.Err = err
	return re
}

func (e *RedirectError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Description + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Description
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// Location renders the redirect target with error parameters appended to any
// query the registered redirect_uri already carries.
func (e *RedirectError) Location() string {
	params := url.Values{}
	params.Set("error", string(e.Code))
	if e.Description != "" {
		params.Set("error_description", e.Description)
	}
	if e.URI != "" {
		params.Set("error_uri", e.URI)
	}
	if e.State != "" {
		params.Set("state", e.State)
	}
	return AppendQuery(e.RedirectURI, params)
}

// AppendQuery merges params into rawURL's query string.
func AppendQuery(rawURL string, params url.Values) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
