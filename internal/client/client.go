// Package client talks to portal-api over HTTP on behalf of portal-cli.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

// ErrOperationFailed marks transport failures and responses that carry no
// typed error. It never stands for a workflow rejection.
var ErrOperationFailed = errors.New("operation failed")

// ErrUnauthenticated marks a 401 on a request that carried a bearer token.
// Callers end the local session when they see it.
var ErrUnauthenticated = errors.New("session rejected by server")

// Client is a thin JSON client for the portal API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL (for example http://host:8080/api/v1).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// WithToken returns a copy that sends token as the bearer credential.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// Login exchanges credentials for a session bundle.
func (c *Client) Login(ctx context.Context, email, password string) (*authz.Bundle, error) {
	var res models.LoginResponse
	if err := c.WithToken("").do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return BundleFromLogin(res), nil
}

// Logout revokes the refresh token on the server.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", models.LogoutRequest{RefreshToken: refreshToken}, nil)
}

// Me returns the server's view of the current session.
func (c *Client) Me(ctx context.Context) (*models.SessionInfo, error) {
	var info models.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ProcedureQuery selects the listing endpoint and its filters.
type ProcedureQuery struct {
	Family    authz.Requirement
	StudentID int64
	Status    string
}

// ListProcedures lists procedures through the endpoint of the caller's role
// family. Parents must name a student.
func (c *Client) ListProcedures(ctx context.Context, q ProcedureQuery) ([]models.Procedure, error) {
	var path string
	switch q.Family {
	case authz.RequireAdmin:
		path = "/admin/procedures"
	case authz.RequireTeacher:
		path = "/teacher/procedures"
	case authz.RequireParent:
		if q.StudentID <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a student id is required for parents")
		}
		path = "/parent/students/" + strconv.FormatInt(q.StudentID, 10) + "/procedures"
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no procedure queue for this session")
	}

	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.StudentID > 0 && q.Family != authz.RequireParent {
		values.Set("student_id", strconv.FormatInt(q.StudentID, 10))
	}
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var procedures []models.Procedure
	if err := c.do(ctx, http.MethodGet, path, nil, &procedures); err != nil {
		return nil, err
	}
	return procedures, nil
}

// TransitionProcedure moves a procedure to status. Admins use the admin
// endpoint, everyone else the teacher one.
func (c *Client) TransitionProcedure(ctx context.Context, family authz.Requirement, id int64, status models.ProcedureStatus, notes *string) (*dto.ProcedureUpdateResponse, error) {
	prefix := "/teacher/procedures/"
	if family == authz.RequireAdmin {
		prefix = "/admin/procedures/"
	}
	payload := map[string]interface{}{"status": status}
	if notes != nil {
		payload["notes"] = *notes
	}

	var res dto.ProcedureUpdateResponse
	if err := c.do(ctx, http.MethodPatch, prefix+strconv.FormatInt(id, 10), payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BundleFromLogin converts the login payload to the bundle the guard consumes.
func BundleFromLogin(res models.LoginResponse) *authz.Bundle {
	return &authz.Bundle{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		User:         &authz.BundleUser{ID: res.User.ID, Email: res.User.Email, FullName: res.User.FullName},
		Roles:        res.Roles,
		Permissions:  res.Permissions,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrOperationFailed, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if c.token != "" && rejectsSession(resp.StatusCode, env.Error) {
		if env.Error != nil {
			if env.Error.Status == 0 {
				env.Error.Status = resp.StatusCode
			}
			return fmt.Errorf("%w: %w", ErrUnauthenticated, env.Error)
		}
		return fmt.Errorf("%w: %s %s: status %d", ErrUnauthenticated, method, path, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s %s: status %d", ErrOperationFailed, method, path, resp.StatusCode)
	}
	if env.Error != nil {
		if env.Error.Status == 0 {
			env.Error.Status = resp.StatusCode
		}
		return env.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s %s: status %d", ErrOperationFailed, method, path, resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrOperationFailed, err)
	}
	return nil
}

func rejectsSession(status int, apiErr *appErrors.Error) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	return apiErr != nil && apiErr.Code == appErrors.ErrUnauthorized.Code
}
