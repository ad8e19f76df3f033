package handler

import (
	"errors"
	"net/http"

	"gmpro/internal/app/chat"
	"gmpro/internal/app/storage"
	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

type PresignUploadInput struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	MimeType string `json:"mimeType" validate:"required,max=100"`
	FileSize int64  `json:"fileSize" validate:"required,gt=0"`
}

// HandlePresignUploadURL returns a short-lived upload URL for an image attachment scoped to
// the caller's meeting.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentsDisabled))
			return
		}

		payload := jwt.GetPayloadFromContext(r)

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey := chat.AttachmentKey(payload.MeetID, input.FileName)

		url, err := deps.Storage.PresignUpload(r.Context(), fileKey, input.MimeType, input.FileSize, chat.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// HandlePresignDownloadURL redirects to a short-lived download URL of the attachment k,
// which must belong to the caller's meeting.
func HandlePresignDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentsDisabled))
			return
		}

		payload := jwt.GetPayloadFromContext(r)

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !chat.IsAttachmentKey(payload.MeetID, fileKey) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if _, err := deps.Storage.Stat(r.Context(), fileKey); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFileNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey, chat.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
