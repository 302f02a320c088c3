package service

import (
	"errors"
	"fmt"
	"net/url"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindRequestFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRequestFailed:
		return "request_failed"
	default:
		return "unexpected"
	}
}

// Stage names the network step an error came from.
type Stage string

const (
	StageValidate Stage = "validate"
	StageResolve  Stage = "resolve"
	StageFetch    Stage = "fetch"
)

const (
	MsgEmptyCity     = "Please enter a city name."
	MsgPlaceNotFound = "City not found in the Philippines"
	MsgFindFailed    = "Failed to find place"
	MsgMalformed     = "malformed weather response"
	MsgFetchFailed   = "Failed to fetch weather data. Please try again."
	MsgGeneric       = "An error occurred while fetching data."
)

// Error is the tagged failure of one lookup step. Message is safe to show to
// a user: it never contains the request URL, which carries the API key.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Stage, e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Stage: StageValidate, Message: msg}
}

func newNotFoundError(stage Stage, msg string) *Error {
	return &Error{Kind: KindNotFound, Stage: stage, Message: msg}
}

func newRequestFailedError(stage Stage, msg string, status int) *Error {
	return &Error{Kind: KindRequestFailed, Stage: stage, Message: msg, Status: status}
}

func newUnexpectedError(stage Stage, err error) *Error {
	return &Error{Kind: KindUnexpected, Stage: stage, Message: safeMessage(err), Err: err}
}

// KindOf reports the Kind of err, or KindUnexpected if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// UserMessage returns the message of err fit for display, or "" when
// nothing displayable is available.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return safeMessage(err)
}

func safeMessage(err error) string {
	if err == nil {
		return ""
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
