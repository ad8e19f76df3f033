/*
Package resp writes the JSON envelope every GM Pro endpoint answers with.

The envelope is {code, message, data}: code 0 means success, any other value is an
errs code and message is its client-facing text.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
)

// JSONResponse is the response envelope.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RespondJSON marshals payload and writes it with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)

	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write response body", "error", err.Error(), "request_uri", r.RequestURI)
	}
}

// RespondSuccess writes data with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondStatus(w, r, http.StatusOK, data)
}

// RespondStatus writes a success envelope with an explicit status, e.g. 201 Created.
func RespondStatus(w http.ResponseWriter, r *http.Request, httpStatus int, data any) {
	RespondJSON(w, r, httpStatus, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondNoContent writes an empty 204 response.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError writes customErr using its status; a nil error becomes ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
