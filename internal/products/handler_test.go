package products

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizinsight360/bizinsight360/internal/shared"
)

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/products", NewHandler(nil, NewService(newMemoryRepo())).MountRoutes)
	return r
}

func asRole(req *http.Request, role string) *http.Request {
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{UserID: 1, Role: role}))
}

func TestProductRoutesEnforceRoles(t *testing.T) {
	router := newTestRouter()
	body := `{"name":"Lamp","stock":3,"price":"12.50"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asRole(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)), "USER"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asRole(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)), "ADMIN"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asRole(httptest.NewRequest(http.MethodGet, "/products/1", nil), "USER"))
	require.Equal(t, http.StatusOK, rec.Code)
	var p Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "12.5", p.Price.String())
}

func TestProductNotFoundAndBadID(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asRole(httptest.NewRequest(http.MethodGet, "/products/999", nil), "ADMIN"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asRole(httptest.NewRequest(http.MethodGet, "/products/abc", nil), "ADMIN"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
