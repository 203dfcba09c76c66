package apperror

import "net/http"

// MsgInternal is the only detail clients see for server-side failures.
const MsgInternal = "Error interno del servidor"

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation is a 400 that keeps the validator error for logging.
func Validation(message string, err error) *AppError {
	return New(http.StatusBadRequest, message, err)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, MsgInternal, err)
}
