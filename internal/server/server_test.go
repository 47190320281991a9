package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yusufkecer/fit-tracker-backend/internal/auth"
	"github.com/yusufkecer/fit-tracker-backend/internal/config"
	"github.com/yusufkecer/fit-tracker-backend/internal/metricschema"
	"github.com/yusufkecer/fit-tracker-backend/internal/repository/memory"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		StorageDriver:   config.DriverMemory,
		JWTSecret:       "test-secret",
		JWTIssuer:       "fit-tracker",
		JWTTTL:          30 * time.Minute,
		BcryptCost:      bcrypt.MinCost,
		Port:            "0",
		AllowedOrigins:  "*",
		LoginRateLimit:  100,
		LoginRateWindow: time.Minute,
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	log := zap.NewNop()
	store := memory.New()

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL})
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	srv := New(cfg, Services{
		Auth:     service.NewAuthService(store.Users(), hasher, tokens, log),
		Profiles: service.NewProfileService(store.Users(), log),
		Weights:  service.NewWeightService(store.Weights(), log),
		Metrics:  service.NewMetricService(store.Metrics(), metricschema.Default(), log),
	}, log)
	return srv.Handler()
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(c.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type entry struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	MetricType string          `json:"metric_type"`
	Date       string          `json:"date"`
	Weight     float64         `json:"weight"`
	Value      json.RawMessage `json:"value"`
}

func signIn(t *testing.T, h http.Handler, username, password string) *client {
	t.Helper()
	c := &client{t: t, h: h}

	rec := c.do(http.MethodPost, "/auth/register", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[map[string]string](t, rec)
	require.Equal(t, "bearer", tok["token_type"])
	require.NotEmpty(t, tok["access_token"])

	c.token = tok["access_token"]
	return c
}

func TestMetricUpsertScenario(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")

	rec := alice.do(http.MethodPost, "/metrics", `{"metric_type":"weight","date":"2026-01-01","value":{"kg":60}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[entry](t, rec)
	assert.JSONEq(t, `{"kg":60}`, string(first.Value))
	assert.Equal(t, "2026-01-01", first.Date)

	rec = alice.do(http.MethodPost, "/metrics", `{"metric_type":"weight","date":"2026-01-01","value":{"kg":61}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[entry](t, rec)
	assert.Equal(t, first.ID, second.ID)
	assert.JSONEq(t, `{"kg":61}`, string(second.Value))

	rec = alice.do(http.MethodGet, "/metrics?metric_type=weight", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]entry](t, rec)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"kg":61}`, string(list[0].Value))
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestHandler(t, testConfig())
	c := &client{t: t, h: h}

	rec := c.do(http.MethodPost, "/auth/register", map[string]string{"username": "alice", "password": "pw123456"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")

	rec = c.do(http.MethodPost, "/auth/register", map[string]string{"username": "alice", "password": "pw123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"username already registered"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/auth/register", map[string]string{"username": "al", "password": "pw123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/auth/register", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong-pass"},
		{"username": "nobody", "password": "pw123456"},
	} {
		rec = c.do(http.MethodPost, "/auth/login", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"incorrect username or password"}`, rec.Body.String())
	}
}

func TestUnauthenticated(t *testing.T) {
	h := newTestHandler(t, testConfig())

	for _, token := range []string{"", "not-a-jwt"} {
		c := &client{t: t, h: h, token: token}
		rec := c.do(http.MethodGet, "/profile", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestProfile(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")

	rec := alice.do(http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", profile["username"])
	assert.Nil(t, profile["age"])

	rec = alice.do(http.MethodPut, "/profile", map[string]any{"age": 200})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPut, "/profile", map[string]any{"gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPut, "/profile", map[string]any{"first_name": "Alice", "height_cm": 170.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile = decode[map[string]any](t, rec)
	assert.Equal(t, "Alice", profile["first_name"])
	assert.Equal(t, 170.5, profile["height_cm"])

	rec = alice.do(http.MethodPut, "/profile", map[string]any{"age": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	profile = decode[map[string]any](t, rec)
	assert.Equal(t, "Alice", profile["first_name"])
	assert.Equal(t, 30.0, profile["age"])
}

func TestWeights(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")

	rec := alice.do(http.MethodPost, "/weights", map[string]any{"weight": 70.5, "date": "2026-01-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	w := decode[entry](t, rec)

	rec = alice.do(http.MethodPost, "/weights", map[string]any{"weight": 71, "date": "2026-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("PUT /weights/%d", w.ID))

	rec = alice.do(http.MethodPost, "/weights", map[string]any{"weight": 0, "date": "2026-01-02"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPost, "/weights", map[string]any{"weight": 70, "date": "01/02/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPost, "/weights", map[string]any{"weight": 72, "date": "2026-01-03"})
	require.Equal(t, http.StatusCreated, rec.Code)
	later := decode[entry](t, rec)

	rec = alice.do(http.MethodGet, "/weights", nil)
	list := decode[[]entry](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, later.ID, list[0].ID)

	rec = alice.do(http.MethodPut, fmt.Sprintf("/weights/%d", later.ID), map[string]any{"date": "2026-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPut, fmt.Sprintf("/weights/%d", later.ID), map[string]any{"weight": 73})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 73.0, decode[entry](t, rec).Weight)

	rec = alice.do(http.MethodDelete, fmt.Sprintf("/weights/%d", w.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = alice.do(http.MethodGet, fmt.Sprintf("/weights/%d", w.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = alice.do(http.MethodGet, "/weights/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnership(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")
	bob := signIn(t, h, "bob", "pw123456")

	rec := alice.do(http.MethodPost, "/metrics", `{"metric_type":"muscle_index","date":"2026-01-01","value":{"index":40}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	m := decode[entry](t, rec)

	rec = alice.do(http.MethodPost, "/weights", map[string]any{"weight": 70, "date": "2026-01-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	w := decode[entry](t, rec)

	for _, path := range []string{fmt.Sprintf("/metrics/%d", m.ID), fmt.Sprintf("/weights/%d", w.ID)} {
		assert.Equal(t, http.StatusForbidden, bob.do(http.MethodGet, path, nil).Code, path)
		assert.Equal(t, http.StatusForbidden, bob.do(http.MethodDelete, path, nil).Code, path)
	}
	rec = bob.do(http.MethodPut, fmt.Sprintf("/metrics/%d", m.ID), `{"value":{"index":99}}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = alice.do(http.MethodGet, fmt.Sprintf("/metrics/%d", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"index":40}`, string(decode[entry](t, rec).Value))

	for _, path := range []string{"/metrics/999", "/weights/999"} {
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, path, nil).Code, path)
		assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, path, nil).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPut, "/metrics/999", `{"value":{"kg":70}}`).Code)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPut, "/weights/999", map[string]any{"weight": 70}).Code)

	rec = bob.do(http.MethodGet, "/metrics", nil)
	assert.Empty(t, decode[[]entry](t, rec))
}

func TestMetricValidationAndFilters(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")

	for _, body := range []string{
		`{"metric_type":"height","date":"2026-01-01","value":{"cm":180}}`,
		`{"metric_type":"weight","date":"2026-01-01","value":{"kg":0}}`,
		`{"metric_type":"weight","date":"2026-01-01","value":{"kg":70,"extra":1}}`,
		`{"metric_type":"muscle_index","date":"2026-01-01","value":{"index":101}}`,
		`{"metric_type":"weight","date":"2026-13-01","value":{"kg":70}}`,
	} {
		rec := alice.do(http.MethodPost, "/metrics", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	for _, body := range []string{
		`{"metric_type":"weight","date":"2026-01-01","value":{"kg":70}}`,
		`{"metric_type":"weight","date":"2026-01-10","value":{"kg":71}}`,
		`{"metric_type":"muscle_index","date":"2026-01-05","value":{"index":42}}`,
	} {
		require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/metrics", body).Code)
	}

	list := decode[[]entry](t, alice.do(http.MethodGet, "/metrics", nil))
	require.Len(t, list, 3)
	assert.Equal(t, []string{"2026-01-10", "2026-01-05", "2026-01-01"}, []string{list[0].Date, list[1].Date, list[2].Date})

	list = decode[[]entry](t, alice.do(http.MethodGet, "/metrics?metric_type=weight&date_from=2026-01-02&date_to=2026-01-31", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "2026-01-10", list[0].Date)

	rec := alice.do(http.MethodGet, "/metrics?metric_type=bogus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/metrics?date_from=yesterday", nil).Code)

	first := list[0]
	rec = alice.do(http.MethodPut, fmt.Sprintf("/metrics/%d", first.ID), `{"date":"2026-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = alice.do(http.MethodPut, fmt.Sprintf("/metrics/%d", first.ID), `{"value":{"kg":75.25},"date":"2026-01-11"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[entry](t, rec)
	assert.Equal(t, "2026-01-11", updated.Date)
	assert.JSONEq(t, `{"kg":75.25}`, string(updated.Value))

	rec = alice.do(http.MethodDelete, fmt.Sprintf("/metrics/%d", first.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf("Metric entry with id %d has been successfully deleted", first.ID), decode[map[string]string](t, rec)["message"])
}

func TestDeleteAccountCascades(t *testing.T) {
	h := newTestHandler(t, testConfig())
	alice := signIn(t, h, "alice", "pw123456")

	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/weights", map[string]any{"weight": 70, "date": "2026-01-01"}).Code)

	assert.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/profile", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/weights", nil).Code)

	again := signIn(t, h, "alice", "pw123456")
	assert.Empty(t, decode[[]entry](t, again.do(http.MethodGet, "/weights", nil)))
}

func TestAPIKeyGate(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "k"
	h := newTestHandler(t, cfg)
	c := &client{t: t, h: h}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).Code)

	rec := c.do(http.MethodPost, "/auth/register", map[string]string{"username": "alice", "password": "pw123456"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateLimit = 2
	cfg.LoginRateWindow = time.Hour
	h := newTestHandler(t, cfg)
	c := &client{t: t, h: h}

	creds := map[string]string{"username": "alice", "password": "pw123456"}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, c.do(http.MethodPost, "/auth/login", creds).Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	h := newTestHandler(t, testConfig())
	c := &client{t: t, h: h}

	rec := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/debug/metrics", nil)
	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, req)
	require.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `fit_tracker_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
}

func TestPreflight(t *testing.T) {
	h := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/weights/1", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
