package jwt

import (
	"context"
	"net/http"

	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed *Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// RequireRoomToken rejects requests without a valid room token in the Authorization header
// with ErrUnauthorized and injects the payload into the context otherwise.
func RequireRoomToken(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := req.BearerToken(r)
			if tokenString == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Debug("Rejected room token", "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := WithPayload(r.Context(), payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextAuthPayloadKey, payload)
}

// GetPayloadFromContext returns the payload injected by RequireRoomToken, or nil.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
