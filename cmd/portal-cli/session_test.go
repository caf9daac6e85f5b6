package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/client"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestExpiredTokenEndsTheLocalSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"data": models.LoginResponse{
				AccessToken:  "short-lived",
				RefreshToken: "refresh",
				User:         models.UserInfo{ID: 1, Email: "admin@colegio.test", FullName: "Admin"},
				Roles:        []string{"ADMIN"},
				Permissions:  []string{},
			}})
		case "/admin/procedures":
			assert.Equal(t, "Bearer short-lived", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{"error": appErrors.Clone(appErrors.ErrUnauthorized, "token expired")})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("PORTAL_API_URL", srv.URL)
	t.Setenv("PORTAL_SESSION_FILE", sessionFile)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)
	ctx := context.Background()

	require.NoError(t, execute(ctx, []string{"login", "--email", "admin@colegio.test", "--password", "portal123"}))
	assert.Equal(t, authz.StateAuthenticated, guard.State())

	err := execute(ctx, []string{"procedures", "list"})
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, authz.StateAnonymous, guard.State())

	out.Reset()
	require.NoError(t, execute(ctx, []string{"open", "/admin"}))
	assert.Equal(t, "redirect "+authz.PathLogin+"\n", out.String())

	store, err := authz.NewFileStore(sessionFile)
	require.NoError(t, err)
	bundle, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, bundle)
}

func TestDropRejectedSessionKeepsSessionOnOtherErrors(t *testing.T) {
	bundle := &authz.Bundle{
		AccessToken: "tok",
		User:        &authz.BundleUser{ID: 3, Email: "profe@colegio.test", FullName: "Profe"},
		Roles:       []string{"MAESTRO"},
		Permissions: []string{},
	}
	g := authz.NewGuard(authz.NewMemoryStore(bundle), zap.NewNop())

	conflict := appErrors.Clone(appErrors.ErrInvalidTransition, "APROBADO is terminal")
	assert.Equal(t, error(conflict), dropRejectedSession(g, conflict))
	assert.Equal(t, authz.StateAuthenticated, g.State())

	assert.NoError(t, dropRejectedSession(g, nil))
	assert.Equal(t, authz.StateAuthenticated, g.State())

	err := dropRejectedSession(g, client.ErrUnauthenticated)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Equal(t, authz.StateAnonymous, g.State())
}
