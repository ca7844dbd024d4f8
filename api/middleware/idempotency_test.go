package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/herb-sales-ledger/api/validators"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	pkgredis "github.com/angelmondragon/herb-sales-ledger/pkg/redis"
)

// memoryKeys is an in-process IdempotencyStore.
type memoryKeys map[string]string

func (m memoryKeys) Get(_ context.Context, key string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", pkgredis.ErrNil
}

func (m memoryKeys) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, taken := m[key]; taken {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m memoryKeys) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key], _ = value.(string)
	return nil
}

func (m memoryKeys) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m, key)
	}
	return nil
}

func (m memoryKeys) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

// routedRequest fakes the chi routing context a mounted handler would see.
func routedRequest(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// createSale posts body to the sales collection, with key when non-empty.
func createSale(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := routedRequest(http.MethodPost, "/api/v1/sales", "/api/v1/sales", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// countingHandler answers with status and a fixed sale body, counting calls.
func countingHandler(status int, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"data":{"id":"sale-1"}}`)
	})
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		ok      bool
	}{
		{name: "create sale", method: http.MethodPost, pattern: "/api/v1/sales", ok: true},
		{name: "mounted create sale", method: http.MethodPost, pattern: "/api/v1/sales/", ok: true},
		{name: "update sale", method: http.MethodPut, pattern: "/api/v1/sales/{saleId}"},
		{name: "list sales", method: http.MethodGet, pattern: "/api/v1/sales"},
		{name: "empty pattern", method: http.MethodPost},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, defaultIdempotencyTTL, ttl)
			}
		})
	}
}

func TestIdempotencyWithoutKeyAlwaysRuns(t *testing.T) {
	keys := memoryKeys{}
	var calls int
	h := Idempotency(keys, nil)(countingHandler(http.StatusCreated, &calls))

	assert.Equal(t, http.StatusCreated, createSale(h, "", `{"product_id":"herb-1"}`).Code)
	assert.Equal(t, http.StatusCreated, createSale(h, "", `{"product_id":"herb-1"}`).Code)
	assert.Equal(t, 2, calls)
	assert.Empty(t, keys)
}

func TestIdempotencyNilStoreRuns(t *testing.T) {
	var calls int
	h := Idempotency(nil, nil)(countingHandler(http.StatusCreated, &calls))
	createSale(h, "k", `{}`)
	createSale(h, "k", `{}`)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	var calls int
	h := Idempotency(memoryKeys{}, nil)(countingHandler(http.StatusCreated, &calls))

	first := createSale(h, "abc", `{"product_id":"herb-1"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	again := createSale(h, "abc", `{"product_id":"herb-1"}`)
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get(replayedHeader))
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"sale-1"}}`, again.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	var calls int
	h := Idempotency(memoryKeys{}, nil)(countingHandler(http.StatusCreated, &calls))

	createSale(h, "xyz", `{"quantity":"1"}`)
	rec := createSale(h, "xyz", `{"quantity":"2"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), envelope.Error.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReleasesKeyAfterServerError(t *testing.T) {
	keys := memoryKeys{}
	var calls int
	h := Idempotency(keys, nil)(countingHandler(http.StatusServiceUnavailable, &calls))

	createSale(h, "retry-me", `{}`)
	createSale(h, "retry-me", `{}`)
	assert.Equal(t, 2, calls)
	assert.Empty(t, keys)
}

func TestIdempotencyKeepsClientErrors(t *testing.T) {
	keys := memoryKeys{}
	var calls int
	h := Idempotency(keys, nil)(countingHandler(http.StatusUnprocessableEntity, &calls))

	createSale(h, "short-stock", `{"quantity":"99"}`)
	rec := createSale(h, "short-stock", `{"quantity":"99"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Len(t, keys, 1)
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	keys := memoryKeys{}
	var retry *httptest.ResponseRecorder

	mw := Idempotency(keys, nil)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the client retries before the first attempt finishes
		retry = createSale(mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("duplicate reached the handler")
		})), "busy", `{"quantity":"1"}`)
		w.WriteHeader(http.StatusCreated)
	}))

	assert.Equal(t, http.StatusCreated, createSale(h, "busy", `{"quantity":"1"}`).Code)
	require.NotNil(t, retry)
	assert.Equal(t, http.StatusConflict, retry.Code)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	keys := memoryKeys{}
	var calls int
	h := Idempotency(keys, nil)(countingHandler(http.StatusCreated, &calls))

	body := `{"comment":"` + strings.Repeat("x", validators.MaxBodyBytes) + `"}`
	rec := createSale(h, "too-big", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
	assert.Zero(t, calls)
	assert.Empty(t, keys)
}
