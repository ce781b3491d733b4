package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated backend session
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token has expired
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// tokenResponse is the auth surface's wire response for sign-in/sign-up
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) session(tr *tokenResponse) *Session {
	s := &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.User.ID,
		Email:        tr.User.Email,
	}

	// Prefer the expiry baked into the token; fall back to expires_in
	if exp, ok := tokenExpiry(tr.AccessToken); ok {
		s.ExpiresAt = exp
	} else if tr.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	return s
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend verifies tokens, this side only needs to know when to refresh.
func tokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// SignIn exchanges email/password credentials for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var tr tokenResponse
	err := c.do(ctx, "sign in", http.MethodPost, "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		return nil, err
	}
	return c.session(&tr), nil
}

// SignUp registers a new account. Depending on backend settings the
// response may or may not carry a usable session (email confirmation).
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}

	var tr tokenResponse
	if err := c.do(ctx, "sign up", http.MethodPost, "/auth/v1/signup", "", payload, &tr); err != nil {
		return nil, err
	}
	return c.session(&tr), nil
}

// RequestPasswordReset asks the backend to send a recovery email
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, "password reset", http.MethodPost, "/auth/v1/recover", "",
		map[string]string{"email": email}, nil)
}

// UpdatePassword sets a new password for the session's user
func (c *Client) UpdatePassword(ctx context.Context, session *Session, newPassword string) error {
	return c.do(ctx, "password update", http.MethodPut, "/auth/v1/user", session.AccessToken,
		map[string]string{"password": newPassword}, nil)
}
