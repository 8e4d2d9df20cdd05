package errs

import (
	"errors"
	"fmt"
)

// Kind sentinels. Match with errors.Is(err, errs.ErrNotFound).
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid input")
	ErrForbidden = errors.New("forbidden")
)

// Reason codes surfaced to callers so the UI can explain a failure.
const (
	CodePostNotFound       = "POST_NOT_FOUND"
	CodeCommentNotFound    = "COMMENT_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeVoteNotFound       = "VOTE_NOT_FOUND"
	CodeReportNotFound     = "REPORT_NOT_FOUND"
	CodeDuplicateVote      = "DUPLICATE_VOTE"
	CodeDuplicateReport    = "DUPLICATE_REPORT"
	CodeEditCooldown       = "EDIT_COOLDOWN_EXPIRED"
	CodeCommentsClosed     = "COMMENTS_CLOSED"
	CodeUserBanned         = "USER_BANNED"
	CodeUserMuted          = "USER_MUTED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeModeratorProtected = "MODERATOR_CANNOT_BE_BANNED"
	CodeInvalidTarget      = "INVALID_TARGET"
	CodeInvalidInput       = "INVALID_INPUT"
)

type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	if e.Kind == target {
		return true
	}
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Kind == e.Kind
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: msg}
}

func Invalid(code, msg string) *Error {
	return &Error{Kind: ErrInvalid, Code: code, Message: msg}
}

func Forbidden(code, msg string) *Error {
	return &Error{Kind: ErrForbidden, Code: code, Message: msg}
}

// Wrap attaches a cause to a typed error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// CodeOf returns the reason code of the first *Error in the chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
