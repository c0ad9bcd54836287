// Package apperr holds the error taxonomy surfaced to API clients. Every
// failure reaches the client as a {code, message} pair with a fixed status.
package apperr

import (
	"fmt"
	"net/http"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeScheduleNotFound   = "SCHEDULE_NOT_FOUND"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeRateLimited        = "RATE_LIMITED"
	CodeLoginLimited       = "LOGIN_LIMITED"
	CodeServer             = "SERVER_ERROR"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

func Validation(fields ...FieldError) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: "request validation failed",
		Fields:  fields,
	}
}

func Unauthorized() *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, "authentication token not provided")
}

func InvalidToken() *Error {
	return New(http.StatusUnauthorized, CodeInvalidToken, "token is invalid")
}

func TokenExpired() *Error {
	return New(http.StatusUnauthorized, CodeTokenExpired, "token has expired")
}

// UserNotFound is the 401 raised by the session check; handlers that look up
// the current account use UserGone instead.
func UserNotFound() *Error {
	return New(http.StatusUnauthorized, CodeUserNotFound, "user not found")
}

func UserGone() *Error {
	return New(http.StatusNotFound, CodeUserNotFound, "user not found")
}

func InvalidCredentials() *Error {
	return New(http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
}

func Forbidden() *Error {
	return New(http.StatusForbidden, CodeForbidden, "not allowed")
}

func ScheduleNotFound() *Error {
	return New(http.StatusNotFound, CodeScheduleNotFound, "schedule not found")
}

func EmailExists() *Error {
	return New(http.StatusConflict, CodeEmailExists, "email is already registered")
}

func RateLimited() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, "too many requests, try again later")
}

func LoginLimited() *Error {
	return New(http.StatusTooManyRequests, CodeLoginLimited, "too many login attempts, try again later")
}

// Server is returned for unexpected failures; the cause is logged, never sent.
func Server() *Error {
	return New(http.StatusInternalServerError, CodeServer, "internal server error")
}
