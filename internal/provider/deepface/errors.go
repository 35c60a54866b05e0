package deepface

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
)

// StatusError is returned for non-2xx answers from the API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// isClientError checks if the error is a 4xx client error
func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError
}

// isNoFaceError reports the API's "Face could not be detected" answer,
// raised when enforce_detection is on and the detector finds nothing.
func isNoFaceError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) || !isClientError(err) {
		return false
	}
	return strings.Contains(strings.ToLower(se.Body), "could not be detected")
}
