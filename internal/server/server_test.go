package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/castiq/internal/auth"
	"github.com/sakif/castiq/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<title>CastIQ</title>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "charts.html"), []byte("<title>Charts</title>"), 0o644))

	return &config.Config{
		Port:         8080,
		StoreBackend: config.BackendSQLite,
		DBPath:       ":memory:",
		FrontendDir:  dir,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Data    json.RawMessage `json:"data"`
	OK      *bool           `json:"ok"`
	Rows    *int            `json:"supabase_rows"`
}

type wireCatch struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Location    string  `json:"location"`
	Species     string  `json:"species"`
	LengthIn    float64 `json:"length_in"`
	WeightLbs   float64 `json:"weight_lbs"`
	Temperature float64 `json:"temperature"`
	Bait        string  `json:"bait"`
}

func call(t *testing.T, ts *httptest.Server, method, path, body string, header http.Header) (int, apiResponse) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func listCatches(t *testing.T, ts *httptest.Server, owner string) []wireCatch {
	t.Helper()
	status, res := call(t, ts, http.MethodGet, "/catches?user_id="+owner, "", nil)
	require.Equal(t, http.StatusOK, status)
	var out []wireCatch
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out
}

func TestCatchLifecycleScenario(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	before := time.Now().Format("2006-01-02")
	status, res := call(t, ts, http.MethodPost, "/log-catch",
		`{"user_id":"u1","date":"","time":"","location":"pier","species":"bass","length_in":12.5,"weight_lbs":2.1,"temperature":70,"bait":"worm"}`, nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, res.Success)

	var logged wireCatch
	require.NoError(t, json.Unmarshal(res.Data, &logged))
	assert.Positive(t, logged.ID)
	assert.Contains(t, []string{before, time.Now().Format("2006-01-02")}, logged.Date, "defaults to today")
	assert.Regexp(t, `^\d{2}:\d{2}$`, logged.Time)
	assert.Equal(t, "pier", logged.Location)
	assert.Equal(t, 12.5, logged.LengthIn)

	assert.Equal(t, []wireCatch{logged}, listCatches(t, ts, "u1"))

	id := jsonID(logged.ID)
	status, res = call(t, ts, http.MethodDelete, "/delete-catch/"+id+"?user_id=u2", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, res.Success)
	assert.Equal(t, "Catch not found or unauthorized", res.Message)
	assert.Len(t, listCatches(t, ts, "u1"), 1)

	status, res = call(t, ts, http.MethodDelete, "/delete-catch/"+id+"?user_id=u1", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)
	assert.Equal(t, "Catch deleted successfully", res.Message)
	assert.Empty(t, listCatches(t, ts, "u1"))
}

func TestExplicitDateAndTimePreserved(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	_, res := call(t, ts, http.MethodPost, "/log-catch",
		`{"user_id":"u1","date":"2024-04-01","time":"23:59","species":"trout"}`, nil)
	var logged wireCatch
	require.NoError(t, json.Unmarshal(res.Data, &logged))
	assert.Equal(t, "2024-04-01", logged.Date)
	assert.Equal(t, "23:59", logged.Time)
}

func TestEmptyOwnerCreatesNothing(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	status, res := call(t, ts, http.MethodPost, "/log-catch", `{"user_id":"","species":"bass"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing user_id", res.Detail)

	status, _ = call(t, ts, http.MethodGet, "/catches", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	_, res = call(t, ts, http.MethodGet, "/keepalive", "", nil)
	require.NotNil(t, res.Rows)
	assert.Equal(t, 0, *res.Rows, "no row was written")
}

func TestEditScopedToOwner(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	_, res := call(t, ts, http.MethodPost, "/log-catch", `{"user_id":"alice","species":"bass"}`, nil)
	var logged wireCatch
	require.NoError(t, json.Unmarshal(res.Data, &logged))
	id := jsonID(logged.ID)

	status, res := call(t, ts, http.MethodPut, "/edit-catch/"+id, `{"user_id":"bob","species":"carp"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, res.Success)

	status, res = call(t, ts, http.MethodPut, "/edit-catch/999", `{"user_id":"alice","species":"carp"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, res.Success)

	status, res = call(t, ts, http.MethodPut, "/edit-catch/"+id,
		`{"user_id":"alice","date":"2026-10-18","time":"05:30","species":"carp","length_in":"20"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	require.True(t, res.Success)
	var edited wireCatch
	require.NoError(t, json.Unmarshal(res.Data, &edited))
	assert.Equal(t, logged.ID, edited.ID)
	assert.Equal(t, "carp", edited.Species)
	assert.Equal(t, 20.0, edited.LengthIn)

	assert.Empty(t, listCatches(t, ts, "bob"))
}

func TestMalformedInput(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	status, res := call(t, ts, http.MethodDelete, "/delete-catch/abc?user_id=u1", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, res.Detail)

	status, _ = call(t, ts, http.MethodPost, "/log-catch", `not json`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestNonFiniteNumbersNeverStored(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	for _, body := range []string{
		`{"user_id":"u9","length_in":"Infinity"}`,
		`{"user_id":"u9","weight_lbs":"NaN"}`,
	} {
		status, res := call(t, ts, http.MethodPost, "/log-catch", body, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status, body)
		assert.NotEmpty(t, res.Detail, body)
	}

	resp, err := http.Get(ts.URL + "/catches?user_id=u9")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, string(raw))
}

func TestKeepalive(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	status, res := call(t, ts, http.MethodGet, "/keepalive", "", nil)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, res.OK)
	assert.True(t, *res.OK)
}

func TestStaticPages(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	for path, want := range map[string]string{
		"/":            "CastIQ",
		"/index.html":  "CastIQ",
		"/charts.html": "Charts",
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	ts := newTestServer(t, testConfig(t))
	const origin = "https://example.net"

	t.Run("preflight echoes origin and method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPatch, http.MethodTrace} {
			req, err := http.NewRequest(http.MethodOptions, ts.URL+"/log-catch", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", method)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"), method)
			assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"), method)
			assert.Equal(t, method, resp.Header.Get("Access-Control-Allow-Methods"), method)
		}
	})

	t.Run("credentialed request gets the origin back, never a wildcard", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/catches?user_id=u1", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Cookie", "session=abc")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})
}

func TestIdentityVerification(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	cfg := testConfig(t)
	cfg.JWTSecret = secret
	ts := newTestServer(t, cfg)

	tokens, err := auth.NewTokenService(secret)
	require.NoError(t, err)
	token, err := tokens.Generate("u1")
	require.NoError(t, err)
	bearer := http.Header{"Authorization": {"Bearer " + token}}

	status, _ := call(t, ts, http.MethodGet, "/catches?user_id=u1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, ts, http.MethodGet, "/catches?user_id=u1", "", bearer)
	assert.Equal(t, http.StatusOK, status)

	status, res := call(t, ts, http.MethodGet, "/catches?user_id=u2", "", bearer)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotEmpty(t, res.Detail)

	status, _ = call(t, ts, http.MethodGet, "/keepalive", "", nil)
	assert.Equal(t, http.StatusOK, status, "liveness needs no token")
}

func TestNewRejectsShortSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "short"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestOpenRepositoryUnknownBackend(t *testing.T) {
	_, err := OpenRepository(&config.Config{StoreBackend: "mongo"})
	assert.Error(t, err)
}

func TestOpenRepositorySupabase(t *testing.T) {
	repo, err := OpenRepository(&config.Config{
		StoreBackend: config.BackendSupabase,
		SupabaseURL:  "https://demo.supabase.co",
		SupabaseKey:  "anon-key",
		StoreTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.NoError(t, repo.Close())
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
