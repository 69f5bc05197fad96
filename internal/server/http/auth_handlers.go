package httpserver

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/and161185/audio-dementia/internal/errs"
)

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	const needBoth = "Login and password required for registration"

	p, err := readParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, needBoth, nil)
		return
	}
	login, pass := strings.TrimSpace(p.optStr("login")), p.optStr("pass")
	if login == "" || pass == "" {
		writeJSON(w, http.StatusBadRequest, needBoth, nil)
		return
	}
	if _, err := s.auth.Register(r.Context(), login, pass); err != nil {
		s.fail(w, r, err, failure{validation: needBoth})
		return
	}
	writeJSON(w, http.StatusOK, "Successful registration", nil)
}

// token exchanges HTTP Basic credentials for an access and a refresh token.
func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	login, pass, ok := r.BasicAuth()
	if !ok || login == "" {
		w.Header().Set("WWW-Authenticate", `Basic realm="Authentication Required"`)
		writeJSON(w, http.StatusUnauthorized, msgNotAuthorized, nil)
		return
	}
	tok, err := s.auth.Login(r.Context(), login, pass, remoteIP(r))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Authentication Required"`)
		}
		s.fail(w, r, err, failure{})
		return
	}
	writeJSON(w, http.StatusOK, "Access token retrieved", map[string]any{
		"access_token":  tok.AccessToken,
		"refresh_token": tok.RefreshToken,
	})
}

func refreshParam(r *http.Request) (string, bool) {
	p, err := readParams(r)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(p.optStr("refresh_token"))
	return v, v != ""
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	rt, ok := refreshParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, msgNeedRefresh, nil)
		return
	}
	access, err := s.auth.RedeemRefreshToken(r.Context(), rt)
	if err != nil {
		s.fail(w, r, err, failure{unauthorized: "Provided token is not valid"})
		return
	}
	writeJSON(w, http.StatusOK, "Access token retrieved", map[string]any{"access_token": access})
}

func (s *Server) revoke(w http.ResponseWriter, r *http.Request) {
	rt, ok := refreshParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, msgNeedRefresh, nil)
		return
	}
	if err := s.auth.RevokeRefreshToken(r.Context(), rt); err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	writeJSON(w, http.StatusOK, "Token is successfully revoked", nil)
}
