package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrNoDocuments  = errors.New("no PDF files to process")
	ErrStore        = errors.New("store error")
)

// Document processing taxonomy.
var (
	ErrInvalidPattern           = errors.New("invalid pattern")
	ErrCredentialRequired       = errors.New("password required")
	ErrCredentialIncorrect      = errors.New("password incorrect")
	ErrUnrecognizedDocumentType = errors.New("unrecognized document type")
	ErrExtractionFailure        = errors.New("text extraction failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCredentialError reports whether err asks the operator for a password.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredentialRequired) || errors.Is(err, ErrCredentialIncorrect)
}

// Message returns the operator-facing part of err: the AppError message when
// present, else the error text.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPattern), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoDocuments):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case IsCredentialError(err):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnrecognizedDocumentType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
