package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBrevoServiceDisabledWithoutCredentials(t *testing.T) {
	svc := NewBrevoService("", "noreply@example.com", "Portal", "", zap.NewNop())
	assert.Nil(t, svc)
	assert.NoError(t, svc.CertificateIssued(context.Background(), "Asha Rao", "asha@example.com", "Advanced Rigging", "ZXC2025123456"))
}

func TestCertificateIssuedPostsToBrevo(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := NewBrevoService("key-123", "noreply@example.com", "Portal", "https://portal.example.com/verify/", zap.NewNop())
	svc.endpoint = srv.URL

	err := svc.CertificateIssued(context.Background(), "Asha Rao", "asha@example.com", "Advanced <Rigging>", "ZXC2025123456")
	require.NoError(t, err)

	assert.Equal(t, "Your certificate is ready", got.Subject)
	assert.Equal(t, "asha@example.com", got.To[0]["email"])
	assert.Contains(t, got.HTMLContent, "ZXC2025123456")
	assert.Contains(t, got.HTMLContent, "Advanced &lt;Rigging&gt;")
	assert.Contains(t, got.HTMLContent, "https://portal.example.com/verify?code=ZXC2025123456")
}

func TestCertificateIssuedSurfacesBrevoErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	svc := NewBrevoService("key-123", "noreply@example.com", "Portal", "", zap.NewNop())
	svc.endpoint = srv.URL

	err := svc.CertificateIssued(context.Background(), "Asha Rao", "asha@example.com", "Course", "ZXC2025123456")
	assert.ErrorContains(t, err, "401")

	err = svc.CertificateIssued(context.Background(), "Asha Rao", "not-an-email", "Course", "ZXC2025123456")
	assert.ErrorContains(t, err, "invalid recipient")
}
