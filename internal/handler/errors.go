package handler

import (
	"context"
	"errors"

	"gmpro/internal/app/chat"
	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/shuffler"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
)

// upstreamError maps Meet, Workspace Events, shuffler and chat failures onto response errors.
func upstreamError(err error) *errs.CustomError {
	switch {
	case errors.Is(err, meet.ErrUnauthenticated), errors.Is(err, events.ErrUnauthenticated):
		return errs.NewError(errs.ErrUnauthenticated)
	case errors.Is(err, meet.ErrNotFound):
		return errs.NewError(errs.ErrConferenceNotFound)
	case errors.Is(err, events.ErrNotFound):
		return errs.NewError(errs.ErrSubscriptionNotFound)
	case errors.Is(err, meet.ErrPermissionDenied), errors.Is(err, events.ErrPermissionDenied):
		return errs.NewError(errs.ErrPermissionDenied)
	case errors.Is(err, shuffler.ErrEmptyRoster):
		return errs.NewError(errs.ErrEmptyRoster)
	case errors.Is(err, chat.ErrMessageNotFound), errors.Is(err, chat.ErrNotAuthor),
		errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrTooLong),
		errors.Is(err, chat.ErrInvalidImage):
		return chat.AsCustomError(err)
	case errors.Is(err, meet.ErrTransport), errors.Is(err, events.ErrUpstream),
		errors.Is(err, context.DeadlineExceeded):
		logx.Warn("Upstream request failed", "error", err.Error())
		return errs.NewError(errs.ErrUpstreamFailed)
	default:
		return errs.NewError(errs.ErrUnknown, err)
	}
}
