/*
Package errs provides the application error type and its error code constants.

Codes identify a failure both in server logs and in the JSON envelope returned to the
extension, so the client can branch on them without parsing messages.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON request body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the caller exceeded its request rate.
	ErrRateLimitExceeded = 1007

	// ErrMissingIdentifier indicates that none of meetingId, meetingCode or spaceName was given.
	ErrMissingIdentifier = 1008
)

// 2xxx: Meet proxy errors
const (
	// ErrUnauthenticated indicates a missing, invalid or expired Google credential.
	ErrUnauthenticated = 2001

	// ErrConferenceNotFound indicates the identifier could not be resolved to a conference.
	ErrConferenceNotFound = 2002

	// ErrPermissionDenied indicates the credential lacks the required Meet scopes.
	ErrPermissionDenied = 2003

	// ErrUpstreamFailed indicates any other failure talking to a Google API.
	ErrUpstreamFailed = 2004

	// ErrSubscriptionNotFound indicates the referenced event subscription does not exist.
	ErrSubscriptionNotFound = 2005

	// ErrWebhookMessageInvalid indicates an unparsable push notification.
	ErrWebhookMessageInvalid = 2101

	// ErrWebhookNoConference indicates a push notification without a conference record.
	ErrWebhookNoConference = 2102
)

// 3xxx: Chat and shuffler errors
const (
	// ErrUnauthorized indicates a missing or invalid room token.
	ErrUnauthorized = 3001

	// ErrMessageNotFound indicates the referenced chat message does not exist.
	ErrMessageNotFound = 3002

	// ErrNotMessageAuthor indicates an edit attempt by someone other than the author.
	ErrNotMessageAuthor = 3003

	// ErrMessageEmpty indicates a message with neither text nor image.
	ErrMessageEmpty = 3004

	// ErrMessageContentTooLong indicates message text above the size limit.
	ErrMessageContentTooLong = 3005

	// ErrEmptyRoster indicates a shuffler operation on a meeting without active participants.
	ErrEmptyRoster = 3101

	// ErrRoomNotFound indicates the meeting has no open chat room.
	ErrRoomNotFound = 3201

	// ErrRoomIsFull indicates the chat room reached its client capacity.
	ErrRoomIsFull = 3202
)

// 4xxx: Attachment errors
const (
	// ErrAttachmentsDisabled indicates the server runs without object storage.
	ErrAttachmentsDisabled = 4001

	// ErrFileSizeTooLarge indicates an attachment above the size limit.
	ErrFileSizeTooLarge = 4002

	// ErrFileTypeInvalid indicates an attachment with a disallowed type or extension.
	ErrFileTypeInvalid = 4003

	// ErrFileStorageFailed indicates a failure talking to object storage.
	ErrFileStorageFailed = 4004

	// ErrFileNotFound indicates a download of an attachment that was never uploaded.
	ErrFileNotFound = 4005
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
