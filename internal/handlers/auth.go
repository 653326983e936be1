package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// login exchanges the operator credentials for an access token
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if !r.decode(w, req, &loginReq) {
		return
	}

	auth := r.deps.Config.Auth
	if auth.OperatorPasswordHash == "" || r.deps.Config.JWTSecret == "" {
		respondError(w, http.StatusServiceUnavailable, "Operator login not configured")
		return
	}

	if loginReq.Username != auth.OperatorUser || !utils.CheckPasswordHash(loginReq.Password, auth.OperatorPasswordHash) {
		log.WithField("user", loginReq.Username).Warn("🔒 Rejected login")
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateOperatorToken(auth.OperatorUser, r.deps.Config.JWTSecret, auth.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken": token,
		},
		"expiresAt": time.Now().Add(auth.TokenTTL).UTC(),
	})
}
