/*
Package errs provides the application error type and its error code constants.

This file defines CustomError, which carries a business code, a client-facing message
and the HTTP status used when it is written to a response.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gmpro/internal/pkg/logx"
)

// CustomError is the error type handlers hand to resp.RespondError.
type CustomError struct {
	// Code is the business error code (see constants).
	Code int

	// Message is the client-facing description.
	Message string

	// Status is the HTTP status used for the response.
	Status int
}

func (e CustomError) Error() string {
	return fmt.Sprintf("code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is matches any *CustomError with the same code, so errors.Is(err, NewError(code)) works
// regardless of message details.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// From returns the *CustomError in err's chain, or nil.
func From(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return nil
}

// NewError builds a *CustomError from a registered code. Optional details are
// printf arguments for messages with placeholders; for ErrUnknown the first detail may be
// the underlying error, which is logged. Unregistered codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	switch {
	case customErr.Code == ErrUnknown && len(details) > 0:
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	case len(details) > 0:
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error without placeholders. Details ignored.", "code", code)
		}
	}

	return &customErr
}
