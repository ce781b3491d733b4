package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medicai-app/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "anon-key", zap.NewNop())
	require.NoError(t, err)
	return c, server
}

// signedTestToken builds a real JWT carrying sub and exp; the client only
// parses it unverified
func signedTestToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "anon-key", zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient("https://example.test", "", zap.NewNop())
	assert.Error(t, err)
}

func TestClient_FunctionURL(t *testing.T) {
	c, err := NewClient("https://example.test/", "anon-key", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/functions/v1/ai-chat", c.FunctionURL("ai-chat"))
}

func TestDo_Headers(t *testing.T) {
	var headers http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.Write([]byte("[]"))
	})

	_, err := c.ListMedicines(context.Background(), nil, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "anon-key", headers.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", headers.Get("Authorization"), "no session falls back to the anon key")

	session := &Session{AccessToken: "user-token"}
	_, err = c.ListMedicines(context.Background(), session, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", headers.Get("Authorization"))
}

func TestDo_PostAsksForRepresentation(t *testing.T) {
	var prefer string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		prefer = r.Header.Get("Prefer")
		json.NewEncoder(w).Encode([]model.Medication{{ID: "m1"}})
	})

	_, err := c.CreateMedicine(context.Background(), nil, model.Medication{Name: "Ibuprofeno"})
	require.NoError(t, err)
	assert.Equal(t, "return=representation", prefer)
}

func TestDo_NonOKBecomesRemoteError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid login credentials"})
	})

	_, err := c.SignIn(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusUnauthorized, remote.Status)
	assert.Equal(t, "Invalid login credentials", remote.Message)
	assert.Equal(t, "sign in", remote.Op)
}

func TestDo_NetworkErrorBecomesRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c, err := NewClient(server.URL, "anon-key", zap.NewNop())
	require.NoError(t, err)

	_, err = c.ListMedicines(context.Background(), nil, "user-1")
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Zero(t, remote.Status)
}

func TestSignIn_SessionExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	accessToken := signedTestToken(t, "user-1", exp)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "refresh",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "user@example.com"},
		})
	})

	session, err := c.SignIn(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "user@example.com", session.Email)
	assert.Equal(t, exp.Unix(), session.ExpiresAt.Unix(), "expiry comes from the token's exp claim")
	assert.False(t, session.Expired())
}

func TestSession_Expired(t *testing.T) {
	past := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, past.Expired())

	open := &Session{}
	assert.False(t, open.Expired(), "sessions without a known expiry never self-expire")
}

func TestUpdateAppointment_EmptyRowsMeansNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.appt-1", r.URL.Query().Get("id"))
		w.Write([]byte("[]"))
	})

	status := model.AppointmentCompleted
	_, err := c.UpdateAppointment(context.Background(), nil, "appt-1", model.AppointmentPatch{Status: &status})
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.Status)
}

func TestCancelAppointment_PatchesStatus(t *testing.T) {
	var patch map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		json.NewEncoder(w).Encode([]model.Appointment{{ID: "appt-1", Status: model.AppointmentCancelled}})
	})

	appt, err := c.CancelAppointment(context.Background(), nil, "appt-1")
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentCancelled, appt.Status)
	assert.Equal(t, string(model.AppointmentCancelled), patch["status"])
}

func TestListMedicines_FiltersByUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/medicines", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		json.NewEncoder(w).Encode([]model.Medication{{ID: "m1", Name: "Ibuprofeno"}})
	})

	meds, err := c.ListMedicines(context.Background(), nil, "user-1")
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Ibuprofeno", meds[0].Name)
}
