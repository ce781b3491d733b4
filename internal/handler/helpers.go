package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/medicai-app/backend/internal/supabase"
)

// ErrorResponse is the JSON error envelope returned by every endpoint
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// bearerToken extracts the bearer token from the Authorization header
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// sessionFrom builds a pass-through backend session from the caller's
// bearer token. A nil session falls back to anonymous access.
func sessionFrom(c *gin.Context) *supabase.Session {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	return &supabase.Session{AccessToken: token}
}

// callerID resolves the acting user: the user_id query parameter when
// present, otherwise the sub claim of the bearer token.
func callerID(c *gin.Context) string {
	if id := c.Query("user_id"); id != "" {
		return id
	}

	token := bearerToken(c)
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
