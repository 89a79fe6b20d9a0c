package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/typec-core/internal/auth"
)

// defaultTokenTTLMinutes applies when security.jwt.access_token_ttl is unset.
const defaultTokenTTLMinutes = 15

// minutesToSeconds converts the TTL for the expires_in response field.
const minutesToSeconds = 60

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	Key string `json:"key"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleToken exchanges the configured admin key for a short-lived bearer
// token. The key comparison is constant-time and accepts either the
// Argon2id hash form or a plaintext key in config.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Key == "" {
		writeBadRequest(w, "key is required")
		return
	}

	ok, err := auth.VerifyKey(req.Key, s.secCfg.AdminKey)
	if err != nil {
		s.logger.Error("admin key verification failed", "error", err)
		writeInternalError(w, "key verification failed")
		return
	}
	if !ok {
		s.logger.Warn("token request with invalid key",
			"request_id", r.Context().Value(ctxKeyRequestID))
		writeUnauthorized(w, "invalid key")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTLMinutes
	}

	token, err := auth.GenerateToken("operator", s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("generating access token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * minutesToSeconds,
	})
}
