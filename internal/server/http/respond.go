package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/errs"
)

const (
	msgInternal      = "Error occurred. Please try later"
	msgForbidden     = "Operation is forbidden"
	msgNotInPlaylist = "This song is already not in playlist"
	msgLoginTaken    = "This username is already taken"
	msgNotAuthorized = "You are not authorized"
	msgTokenFailed   = "Token verification failed"
	msgTokenExpired  = "Token has expired"
	msgRateLimited   = "Too many failed login attempts. Please try later"
	msgEmptyTitle    = "Title parameter is an empty string"
	msgNeedRefresh   = "You should provide refresh token for this call"
)

// writeJSON writes {"status", "message", payload...}.
func writeJSON(w http.ResponseWriter, code int, message string, payload map[string]any) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["status"] = http.StatusText(code)
	body["message"] = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// failure overrides the message sent for an error class.
type failure struct {
	validation   string
	notFound     string
	songNotFound string
	unauthorized string
}

// fail maps err to a status and message. Unclassified errors are logged and
// answered with a generic 500; their text never reaches the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, f failure) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, pe.Error(), nil)
	case errors.Is(err, errs.ErrNotInPlaylist):
		writeJSON(w, http.StatusBadRequest, msgNotInPlaylist, nil)
	case errors.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusBadRequest, or(f.validation, "Invalid request"), nil)
	case errors.Is(err, errs.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, msgTokenExpired, nil)
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, or(f.unauthorized, msgNotAuthorized), nil)
	case errors.Is(err, errs.ErrForbidden):
		writeJSON(w, http.StatusForbidden, msgForbidden, nil)
	case errors.Is(err, errs.ErrSongNotFound) && f.songNotFound != "":
		writeJSON(w, http.StatusNotFound, f.songNotFound, nil)
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, or(f.notFound, "Not found"), nil)
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, msgLoginTaken, nil)
	case errors.Is(err, errs.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, msgRateLimited, nil)
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, msgInternal, nil)
	}
}

func or(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
