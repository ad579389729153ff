package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/flavien-hugs/unsta-sfs/internal/store"

	minio "github.com/minio/minio-go/v7"
)

// Code is the closed error taxonomy surfaced to callers. No raw backend error
// crosses the bucket-manager or media-registry boundary.
type Code string

const (
	CodeInvalidName   Code = "sfs/invalid-name"
	CodeInvalidTags   Code = "sfs/invalid-tags"
	CodeInvalidFile   Code = "sfs/invalid-file"
	CodeNotFound      Code = "sfs/not-found"
	CodeAlreadyExists Code = "sfs/already-exists"
	CodeAccessDenied  Code = "sfs/access-denied"
	CodeUnknown       Code = "sfs/unknown-error"
)

// Error carries a taxonomy code, a human-readable message, and the HTTP
// status to answer with. Backend messages are passed through verbatim on
// CodeUnknown so nothing is swallowed.
type Error struct {
	Code    Code
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func E(code Code, status int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Status: status}
}

// AsError extracts a taxonomy error; ok is false for foreign errors.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// fromObjectStore translates a backend failure into the taxonomy. fallback is
// used for errors the backend does not classify (e.g. a rejected payload on
// upload maps to CodeInvalidFile).
func fromObjectStore(err error, fallback Code) *Error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return &Error{Code: CodeUnknown, Message: err.Error(), Status: http.StatusBadGateway, cause: err}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusBadRequest
	}
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return &Error{Code: CodeNotFound, Message: resp.Message, Status: http.StatusNotFound, cause: err}
	case "AccessDenied":
		return &Error{Code: CodeAccessDenied, Message: resp.Message, Status: http.StatusForbidden, cause: err}
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return &Error{Code: CodeAlreadyExists, Message: resp.Message, Status: http.StatusConflict, cause: err}
	default:
		code := fallback
		if code == "" {
			code = CodeUnknown
		}
		return &Error{Code: code, Message: resp.Message, Status: status, cause: err}
	}
}

// fromStore translates metadata-store failures.
func fromStore(err error, what string) *Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: what + " not found", Status: http.StatusNotFound, cause: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Code: CodeAlreadyExists, Message: what + " already exists", Status: http.StatusConflict, cause: err}
	default:
		return &Error{Code: CodeUnknown, Message: err.Error(), Status: http.StatusInternalServerError, cause: err}
	}
}
