package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
	_ "github.com/bizinsight360/bizinsight360/testing"
)

func newAuthRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	r := chi.NewRouter()
	r.Use(Authenticate(svc.tokens))
	r.Route("/auth", NewHandler(nil, svc).MountRoutes)
	r.With(rbac.Require(rbac.Readers...)).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		p, _ := shared.PrincipalFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(p)
	})
	return r, svc
}

func TestLoginEndpointAndBearerAuth(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@bizinsight360.com","password":"password123"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var res LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotContains(t, rec.Body.String(), "password")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var p shared.Principal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, shared.Principal{UserID: 1, Role: "ADMIN"}, p)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	router, _ := newAuthRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@bizinsight360.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRegisterRequiresAdmin(t *testing.T) {
	router, svc := newAuthRouter(t)
	body := `{"email":"new@example.com","password":"secret12"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userToken, err := svc.tokens.IssueAccessToken(5, rbac.RoleUser)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken, err := svc.tokens.IssueAccessToken(1, rbac.RoleAdmin)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User registered successfully")
}

func TestRefreshEndpointIsRateLimited(t *testing.T) {
	router, _ := newAuthRouter(t)
	codes := make([]int, 0, refreshRequestsPerMinute+1)
	for i := 0; i <= refreshRequestsPerMinute; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"x"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[refreshRequestsPerMinute])
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	router, _ := newAuthRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/forgot-password", strings.NewReader(`{"email":"ghost@example.com"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
