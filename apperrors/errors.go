package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors matched with errors.Is.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidID       = errors.New("invalid identifier")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateReview = errors.New("product already reviewed")
	ErrMediaSigning    = errors.New("media signing failed")
	ErrMediaUpload     = errors.New("media upload failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

// AppError is an error with a stable code and an HTTP status.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error for a well-formed id that does not resolve.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidIdentifier creates a 400 error for a structurally invalid id.
func InvalidIdentifier(id string) *AppError {
	return &AppError{
		Code:    "INVALID_ID",
		Message: fmt.Sprintf("invalid object id: %s", id),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidID,
	}
}

// Validation creates a 400 error. Field messages are extracted from validator errors.
func Validation(message string, err error) *AppError {
	appErr := &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr.Fields = make(map[string]string, len(verrs))
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := lowerFirst(fe.Field())
			appErr.Fields[field] = msgForTag(fe)
			msgs = append(msgs, field+" "+msgForTag(fe))
		}
		appErr.Message = message + ": " + strings.Join(msgs, "; ")
	}
	return appErr
}

// DuplicateReview creates a 400 error for a second review by the same user.
func DuplicateReview() *AppError {
	return &AppError{
		Code:    "DUPLICATE_REVIEW",
		Message: "Product already reviewed",
		Status:  http.StatusBadRequest,
		Err:     ErrDuplicateReview,
	}
}

// MediaSigning creates a 500 error for a missing or unusable media secret.
func MediaSigning(err error) *AppError {
	return &AppError{
		Code:    "MEDIA_SIGNING_FAILED",
		Message: "Failed to generate upload signature",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrMediaSigning, err),
	}
}

// MediaUpload creates a 500 error for a failed server-side upload.
func MediaUpload(err error) *AppError {
	return &AppError{
		Code:    "MEDIA_UPLOAD_FAILED",
		Message: "Image upload failed",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrMediaUpload, err),
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error that hides the cause from the client.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicateReview):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// From converts any error into an AppError. Bare sentinels keep their status; anything
// else becomes Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		return Internal(err)
	}
	return &AppError{
		Code:    codeForStatus(status),
		Message: err.Error(),
		Status:  status,
		Err:     err,
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		return "BAD_REQUEST"
	}
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
