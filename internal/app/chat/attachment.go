package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gmpro/internal/pkg/errs"
)

const (
	MaxAttachmentSizeMB = 5

	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long an upload or download URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes are the image types members may attach.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps an attachment extension to the only MIME type accepted for it.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileSize checks fileSize against MaxAttachmentSize.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAttachmentSizeMB)
	}

	return nil
}

// ValidateFileType checks that mimeType is allowed and matches the extension of fileName.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[strings.ToLower(filepath.Ext(fileName))]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}

// AttachmentKey returns a fresh object key for fileName under the meeting's prefix.
func AttachmentKey(meetID, fileName string) string {
	return fmt.Sprintf("%s/%s%s", meetID, uuid.NewString(), strings.ToLower(filepath.Ext(fileName)))
}

// IsAttachmentKey reports whether key is an image attachment of meetID.
func IsAttachmentKey(meetID, key string) bool {
	rest, ok := strings.CutPrefix(key, meetID+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return false
	}
	_, ok = ExtToMIME[strings.ToLower(filepath.Ext(rest))]
	return ok
}
