package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type fakeAuthService struct {
	loginReq      models.LoginRequest
	loginErr      error
	logoutActor   authz.Identity
	logoutToken   string
	passwordActor authz.Identity
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         models.UserInfo{ID: 1, Email: req.Email},
		Roles:        []string{"PADRE"},
		Permissions:  []string{},
	}, nil
}

func (f *fakeAuthService) RefreshToken(_ context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	return &models.LoginResponse{AccessToken: "rotated", RefreshToken: req.RefreshToken + "-next"}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, actor authz.Identity, token string) error {
	f.logoutActor = actor
	f.logoutToken = token
	return nil
}

func (f *fakeAuthService) Me(_ context.Context, userID int64) (*models.SessionInfo, error) {
	return &models.SessionInfo{User: models.UserInfo{ID: userID}, Roles: []string{"ADMIN"}, Permissions: []string{}}, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, actor authz.Identity, _ models.ChangePasswordRequest) error {
	f.passwordActor = actor
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &fakeAuthService{}
	r := testEngine()
	r.POST("/auth/login", NewAuthHandler(svc).Login)

	rec := do(r, http.MethodPost, "/auth/login", `{"email":"padre@colegio.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "padre@colegio.test", svc.loginReq.Email)
	assert.NotEmpty(t, svc.loginReq.IP)
	assert.JSONEq(t, `"access"`, string(jsonField(t, decode(t, rec).Data, "access_token")))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAuthHandlerLoginErrors(t *testing.T) {
	svc := &fakeAuthService{loginErr: appErrors.ErrInactiveAccount}
	r := testEngine()
	r.POST("/auth/login", NewAuthHandler(svc).Login)

	rec := do(r, http.MethodPost, "/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/auth/login", `{"email":"x@colegio.test","password":"p"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, decode(t, rec).Error.Code)
}

func TestAuthHandlerRefresh(t *testing.T) {
	r := testEngine()
	r.POST("/auth/refresh", NewAuthHandler(&fakeAuthService{}).Refresh)

	rec := do(r, http.MethodPost, "/auth/refresh", `{"refresh_token":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"abc-next"`, string(jsonField(t, decode(t, rec).Data, "refresh_token")))
}

func TestAuthHandlerLogout(t *testing.T) {
	svc := &fakeAuthService{}
	r := testEngine()
	h := NewAuthHandler(svc)
	r.POST("/auth/logout", session(5, []string{"MAESTRO"}, nil), h.Logout)
	r.POST("/anon/logout", h.Logout)

	rec := do(r, http.MethodPost, "/auth/logout", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/auth/logout", `{"refresh_token":"tok"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), svc.logoutActor.ID)
	assert.Equal(t, "tok", svc.logoutToken)

	rec = do(r, http.MethodPost, "/anon/logout", `{"refresh_token":"tok"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeAndChangePassword(t *testing.T) {
	svc := &fakeAuthService{}
	r := testEngine()
	h := NewAuthHandler(svc)
	r.GET("/auth/me", session(8, []string{"ADMIN"}, nil), h.Me)
	r.POST("/auth/change-password", session(8, []string{"ADMIN"}, nil), h.ChangePassword)

	rec := do(r, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":8,"email":"","full_name":""}`, string(jsonField(t, decode(t, rec).Data, "user")))

	rec = do(r, http.MethodPost, "/auth/change-password", `{"old_password":"a","new_password":"bbbbbb"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(8), svc.passwordActor.ID)
}
