// internal/app/system/apperr/apperr.go
//
// Package apperr is the error taxonomy shared by services and handlers.
// Every failure a caller can see is an *Error carrying a Kind (which picks
// the HTTP status), a stable machine code and a human message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindCapacityExceeded
	KindForbidden
	KindUnauthorized
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Stable codes.
const (
	CodeInternal              = "internal"
	CodeValidation            = "validation_failed"
	CodeMissingFields         = "missing_fields"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeSelfAction            = "self_action"
	CodeRateLimited           = "rate_limited"
	CodeCompetitionNotFound   = "competition_not_found"
	CodeTeamNotFound          = "team_not_found"
	CodeUserNotFound          = "user_not_found"
	CodeSchoolNotFound        = "school_not_found"
	CodePostNotFound          = "post_not_found"
	CodeCapacityExceeded      = "capacity_exceeded"
	CodeDuplicateRegistration = "duplicate_registration"
	CodeSchoolMismatch        = "school_mismatch"
	CodeEmailExists           = "email_exists"
	CodeSchoolExists          = "school_exists"
	CodeStaleTeam             = "stale_team"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeAccountInactive       = "account_inactive"
	CodeNotVerified           = "not_verified"
)

// Error is a typed application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string // field-scoped messages for KindValidation
	Err     error             // underlying cause, never shown to callers
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "; %s: %s", k, e.Fields[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind and Code so callers can compare
// against the package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Status maps the error's Kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindCapacityExceeded:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// New builds an *Error.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// NotFound reports a missing entity, e.g. NotFound(CodeTeamNotFound, "Team").
func NotFound(code, entity string) *Error {
	return New(KindNotFound, code, entity+" not found.")
}

// Validation reports field-scoped input problems.
func Validation(msg string, fields map[string]string) *Error {
	if msg == "" {
		msg = "Invalid input."
	}
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg, Fields: fields}
}

// MissingFields reports absent required fields.
func MissingFields(msg string) *Error {
	return New(KindValidation, CodeMissingFields, msg)
}

// Conflict reports a uniqueness or concurrency conflict.
func Conflict(code, msg string) *Error {
	return New(KindConflict, code, msg)
}

// Forbidden reports an authorization denial for an identified caller.
func Forbidden(code, msg string) *Error {
	if code == "" {
		code = CodeForbidden
	}
	return New(KindForbidden, code, msg)
}

// Unauthorized reports a missing or invalid identity.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Authentication required."
	}
	return New(KindUnauthorized, CodeUnauthorized, msg)
}

// Internal wraps a store or transport failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Something went wrong. Please try again.", Err: err}
}

// Sentinels for the registration workflow.
var (
	ErrCompetitionNotFound   = NotFound(CodeCompetitionNotFound, "Competition")
	ErrTeamNotFound          = NotFound(CodeTeamNotFound, "Team")
	ErrUserNotFound          = NotFound(CodeUserNotFound, "User")
	ErrSchoolNotFound        = NotFound(CodeSchoolNotFound, "School")
	ErrPostNotFound          = NotFound(CodePostNotFound, "Post")
	ErrCapacityExceeded      = New(KindCapacityExceeded, CodeCapacityExceeded, "Competition is full.")
	ErrDuplicateRegistration = Conflict(CodeDuplicateRegistration, "Team already registered for this competition.")
	ErrSchoolMismatch        = Forbidden(CodeSchoolMismatch, "Team does not belong to this school.")
	ErrStaleTeam             = Conflict(CodeStaleTeam, "Team was changed by someone else. Reload and try again.")
)

// From returns err as an *Error. Untyped errors become Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// KindOf returns the Kind of err, KindInternal for untyped and nil errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}
