package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors produced by
// WithError still satisfy errors.Is against their predefined sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected. Please ensure your face is clearly visible and well-lit",
		StatusCode: 422,
	}

	ErrInvalidIdentity = &AppError{
		Code:       "INVALID_IDENTITY",
		Message:    "A non-empty name is required for enrollment",
		StatusCode: 422,
	}

	// Model and storage errors
	ErrModelUnavailable = &AppError{
		Code:       "MODEL_UNAVAILABLE",
		Message:    "Face detection or embedding model is unavailable",
		StatusCode: 503,
	}

	ErrShapeMismatch = &AppError{
		Code:       "EMBEDDING_SHAPE_MISMATCH",
		Message:    "Embedding dimensionality does not match the stored faces",
		StatusCode: 500,
	}

	ErrStorage = &AppError{
		Code:       "STORAGE_ERROR",
		Message:    "Face database could not be persisted",
		StatusCode: 500,
	}
)
