/*
Package req provides request parsing helpers: JSON binding with struct validation and
bearer credential extraction.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
)

const (
	// MaxJSONBodySize bounds every JSON request body (1 MB).
	MaxJSONBodySize int64 = 1 << 20

	// GoogleTokenHeader carries the Google access token on routes whose Authorization
	// header already holds a room token.
	GoogleTokenHeader = "X-Goog-Access-Token"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON decodes the request body into dst, rejecting unknown fields, and runs
// `validate` struct tags.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return bind(w, r, dst, true)
}

// DecodeJSON is BindJSON for bodies whose schema is owned by a third party: unknown fields
// are ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return bind(w, r, dst, false)
}

func bind(w http.ResponseWriter, r *http.Request, dst any, strict bool) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				logx.Debug("Request validation failed", "field", fe.Namespace(), "tag", fe.Tag())
			}
		}
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	return parseBearer(r.Header.Get("Authorization"))
}

// GoogleToken returns the Google access token from GoogleTokenHeader, which may be a raw
// token or a "Bearer <token>" value.
func GoogleToken(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get(GoogleTokenHeader))
	if token := parseBearer(value); token != "" {
		return token
	}
	return value
}

func parseBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
