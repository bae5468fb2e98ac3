package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Decode a json request body into v; malformed payloads come back as the
// Invalid kind so handlers can just pass it along.
func DecodeJsonBody(r *http.Request, v any) *ApiError {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return Invalid("Malformed request body")
	}
	return nil
}

// Write the standard success envelope: {success:true, ...extra}
func RespondSuccess(w http.ResponseWriter, r *http.Request, extra map[string]any) {
	result := map[string]any{"success": true}
	for k, v := range extra {
		result[k] = v
	}
	render.JSON(w, r, result)
}

// Write the standard failure envelope for an ApiError. The kind is stable,
// the message is for humans, fields only show up for validation errors.
func RespondError(w http.ResponseWriter, r *http.Request, e *ApiError) {
	result := map[string]any{
		"success": false,
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	if len(e.Fields) > 0 {
		result["fields"] = e.Fields
	}
	render.Status(r, e.Status())
	render.JSON(w, r, result)
}

// Log an unexpected error with context and respond with a generic failure.
// Do NOT pass user-derived secrets in the context string.
func RespondUnexpected(w http.ResponseWriter, r *http.Request, context string, err error) {
	log.Printf("ERROR: %s: %s", context, err)
	RespondError(w, r, Unavailable("Something went wrong, please try again"))
}

// Set a secure, http-only, cross-site capable cookie. All the session and
// auth cookies in this system go through here so they can't drift apart.
func SetSecureCookie(w http.ResponseWriter, name string, value string, expire time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(expire),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func DeleteCookie(name string, w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
