package model

import "errors"

// Sentinel errors shared across services. Handlers never branch on these
// directly; webutil.HandleError maps them to HTTP status codes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("resource conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
)

// AppError carries a stable error code and a user-facing message alongside
// the wrapped sentinel used for status-code mapping.
type AppError struct {
	Detail ErrorDetail
	err    error
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse is the JSON body returned for every error.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		err:    err,
	}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return e.Detail.Code + ": " + e.err.Error()
	}
	return e.Detail.Code + ": " + e.Detail.Message
}

func (e *AppError) Unwrap() error { return e.err }
