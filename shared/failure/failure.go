package failure

import (
	"errors"
	"net/http"
)

// Kind classifies a Failure independently of its HTTP code, so callers can tell
// apart failures that share a status (invalid argument vs invalid operation).
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindInvalidOperation Kind = "invalid_operation"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

var codes = map[Kind]int{
	KindInvalidArgument:  http.StatusBadRequest,
	KindInvalidOperation: http.StatusBadRequest,
	KindUnauthorized:     http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindInternal:         http.StatusInternalServerError,
}

// Failure is an error that carries the HTTP status it should surface as.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind,omitempty"`
}

var ForbiddenError = New(KindForbidden, "You don't have the required permissions")

func (e *Failure) Error() string {
	return e.Message
}

// New builds a Failure whose code follows from kind.
func New(kind Kind, msg string) *Failure {
	code, ok := codes[kind]
	if !ok {
		code = http.StatusInternalServerError
	}

	return &Failure{Code: code, Message: msg, Kind: kind}
}

// BadRequest turns err into an invalid argument failure. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return New(KindInvalidArgument, err.Error())
}

func BadRequestFromString(msg string) error {
	return New(KindInvalidArgument, msg)
}

// InvalidArgument reports a malformed value supplied by the caller.
func InvalidArgument(msg string) error {
	return New(KindInvalidArgument, msg)
}

// InvalidOperation reports a well-formed request that is not applicable to the
// current state of the entity.
func InvalidOperation(msg string) error {
	return New(KindInvalidOperation, msg)
}

func Unauthorized(msg string) error {
	return New(KindUnauthorized, msg)
}

func Forbidden(msg string) error {
	return New(KindForbidden, msg)
}

// NotFound takes the message to report, usually naming the missing entity.
func NotFound(msg string) error {
	return New(KindNotFound, msg)
}

func Conflict(msg string) error {
	return New(KindConflict, msg)
}

// GetCode returns the HTTP status of err, 500 for anything that is not a Failure.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// KindOf returns the kind of the Failure wrapped by err, KindInternal otherwise.
func KindOf(err error) Kind {
	var fail *Failure
	if errors.As(err, &fail) && fail.Kind != "" {
		return fail.Kind
	}

	return KindInternal
}

// IsKind reports whether err wraps a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var fail *Failure

	return errors.As(err, &fail) && fail.Kind == kind
}
