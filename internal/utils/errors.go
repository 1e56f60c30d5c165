package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Warning is a non-fatal rejection of a user action. Whatever returned it
// left the registry untouched.
type Warning struct {
	Code    int
	Message string
}

func (e *Warning) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func NewWarning(code int, message string) error {
	return &Warning{
		Code:    code,
		Message: message,
	}
}

// AsWarning reports whether err is (or wraps) a *Warning.
func AsWarning(err error) (*Warning, bool) {
	var w *Warning
	if errors.As(err, &w) {
		return w, true
	}
	return nil, false
}

var (
	ErrRemoveNotConfirmed = &Warning{http.StatusPreconditionRequired, "Please check the confirmation box before removing."}
	ErrNothingSelected    = &Warning{http.StatusBadRequest, "No apps selected for removal."}
	ErrClearNotConfirmed  = &Warning{http.StatusPreconditionRequired, "Please check the confirmation box before clearing all apps."}
	ErrMissingFields      = &Warning{http.StatusBadRequest, "App name and URL are both required."}
)
