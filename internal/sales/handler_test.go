package sales

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
)

func newSalesRouter() (chi.Router, *mockRepository) {
	svc, repo, _ := newTestService()
	r := chi.NewRouter()
	r.Route("/sales", NewHandler(nil, svc).MountRoutes)
	return r, repo
}

func postSale(router http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateSaleEndpoint(t *testing.T) {
	router, _ := newSalesRouter()

	rec := postSale(router, `{"productId":1,"quantity":2,"userId":1}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "259.98", body["total"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin@bizinsight360.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	product := body["product"].(map[string]any)
	assert.Equal(t, float64(48), product["stock"])
}

func TestCreateSaleEndpointErrors(t *testing.T) {
	router, _ := newSalesRouter()

	cases := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"unknown product", `{"productId":999,"quantity":1,"userId":1}`, http.StatusNotFound, "product with ID 999"},
		{"unknown user", `{"productId":1,"quantity":1,"userId":9}`, http.StatusNotFound, "user with ID 9"},
		{"insufficient stock", `{"productId":1,"quantity":500,"userId":1}`, http.StatusBadRequest, "insufficient stock"},
		{"invalid quantity", `{"productId":1,"quantity":0,"userId":1}`, http.StatusBadRequest, "quantity: gt=0"},
		{"unknown field", `{"productId":1,"quantity":1,"userId":1,"price":1}`, http.StatusBadRequest, "malformed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postSale(router, tc.body, "")
			require.Equal(t, tc.status, rec.Code)
			var problem httpx.ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Contains(t, problem.Detail, tc.detail)
		})
	}
}

func TestCreateSaleEndpointReplay(t *testing.T) {
	router, repo := newSalesRouter()
	body := `{"productId":1,"quantity":1,"userId":1}`

	require.Equal(t, http.StatusCreated, postSale(router, body, "abc").Code)
	assert.Equal(t, http.StatusConflict, postSale(router, body, "abc").Code)
	assert.Len(t, repo.sales, 1)
}

func TestGetSaleEndpoint(t *testing.T) {
	router, _ := newSalesRouter()
	require.Equal(t, http.StatusCreated, postSale(router, `{"productId":1,"quantity":1,"userId":1}`, "").Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var items []Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}
