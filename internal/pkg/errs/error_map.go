/*
Package errs provides the application error type and its error code constants.

This file maps each code to its client message and HTTP status.
*/
package errs

import "net/http"

// errorMap holds the template CustomError for every known code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrMissingIdentifier:    {Code: ErrMissingIdentifier, Message: "One of meetingId, meetingCode, or spaceName is required.", Status: http.StatusBadRequest},

	// 2xxx
	ErrUnauthenticated:       {Code: ErrUnauthenticated, Message: "Invalid or expired access token.", Status: http.StatusUnauthorized},
	ErrConferenceNotFound:    {Code: ErrConferenceNotFound, Message: "Conference or space not found.", Status: http.StatusNotFound},
	ErrPermissionDenied:      {Code: ErrPermissionDenied, Message: "Permission denied. Check if the Meet API is enabled and you have the required scopes.", Status: http.StatusForbidden},
	ErrUpstreamFailed:        {Code: ErrUpstreamFailed, Message: "Google API request failed.", Status: http.StatusBadGateway},
	ErrSubscriptionNotFound:  {Code: ErrSubscriptionNotFound, Message: "Subscription not found.", Status: http.StatusNotFound},
	ErrWebhookMessageInvalid: {Code: ErrWebhookMessageInvalid, Message: "Failed to parse message.", Status: http.StatusBadRequest},
	ErrWebhookNoConference:   {Code: ErrWebhookNoConference, Message: "No conferenceRecord in event.", Status: http.StatusBadRequest},

	// 3xxx
	ErrUnauthorized:          {Code: ErrUnauthorized, Message: "Please join the meeting chat to continue.", Status: http.StatusUnauthorized},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrNotMessageAuthor:      {Code: ErrNotMessageAuthor, Message: "Only the author can edit this message.", Status: http.StatusForbidden},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message needs text or an image.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrEmptyRoster:           {Code: ErrEmptyRoster, Message: "No participants found. Please reload the window and try again.", Status: http.StatusConflict},
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Meeting chat not found.", Status: http.StatusNotFound},
	ErrRoomIsFull:            {Code: ErrRoomIsFull, Message: "This meeting chat is full.", Status: http.StatusConflict},

	// 4xxx
	ErrAttachmentsDisabled: {Code: ErrAttachmentsDisabled, Message: "Image uploads are not available.", Status: http.StatusServiceUnavailable},
	ErrFileSizeTooLarge:    {Code: ErrFileSizeTooLarge, Message: "File is too large (max %d MB).", Status: http.StatusRequestEntityTooLarge},
	ErrFileTypeInvalid:     {Code: ErrFileTypeInvalid, Message: "Only JPEG, PNG, WebP and GIF images are allowed.", Status: http.StatusBadRequest},
	ErrFileStorageFailed:   {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},
	ErrFileNotFound:        {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
