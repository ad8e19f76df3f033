package chat

import (
	"errors"

	"gmpro/internal/pkg/errs"
)

var (
	ErrMessageNotFound = errors.New("chat: message not found")
	ErrNotAuthor       = errors.New("chat: only the author may edit a message")
	ErrEmptyMessage    = errors.New("chat: message has neither text nor image")
	ErrTooLong         = errors.New("chat: message text too long")
	ErrInvalidImage    = errors.New("chat: image is neither a URL nor an attachment of this meeting")
)

// AsCustomError maps chat errors onto response errors. Unknown errors become ErrUnknown.
func AsCustomError(err error) *errs.CustomError {
	if err == nil {
		return nil
	}
	if customErr := errs.From(err); customErr != nil {
		return customErr
	}

	switch {
	case errors.Is(err, ErrMessageNotFound):
		return errs.NewError(errs.ErrMessageNotFound)
	case errors.Is(err, ErrNotAuthor):
		return errs.NewError(errs.ErrNotMessageAuthor)
	case errors.Is(err, ErrEmptyMessage):
		return errs.NewError(errs.ErrMessageEmpty)
	case errors.Is(err, ErrTooLong):
		return errs.NewError(errs.ErrMessageContentTooLong)
	case errors.Is(err, ErrInvalidImage):
		return errs.NewError(errs.ErrFileTypeInvalid)
	default:
		return errs.NewError(errs.ErrUnknown, err)
	}
}
