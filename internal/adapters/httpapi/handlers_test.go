package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/core/usecases"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/registry"
	"netintel/internal/testutil"
)

func testLogger() logx.Logger {
	return logx.NewWithLevel(logx.LevelError)
}

// newTestHandlers arma handlers con un pipeline real sobre mocks.
func newTestHandlers(t *testing.T, searcher ports.Searcher) *Handlers {
	t.Helper()

	reg := registry.NewProviderRegistry(testLogger())
	reg.Register(&testutil.MockProvider{ProviderName: "serpstack", ProviderVersion: "1.0.0"})
	reg.Register(&testutil.MockProvider{ProviderName: "ipapi", ProviderVersion: "1.0.0"})

	svc := usecases.NewAnalyzeService(usecases.Options{
		Searcher: searcher,
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Logger:   testLogger(),
	})

	return NewHandlers(HandlersConfig{
		Analyzer: svc,
		Registry: reg,
		Sealer:   &testutil.MockSealer{},
		Archiver: &testutil.MockArchiver{},
		Version:  "test",
		Logger:   testLogger(),
	})
}

func doRequest(h *Handlers, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return out
}

func TestSearchAnalyzeSuccess(t *testing.T) {
	searcher := &testutil.MockSearcher{Hits: []domain.SearchHit{
		{Domain: "a.com", URL: "https://a.com", Title: "A", FirstSeenPosition: 1},
	}}
	h := newTestHandlers(t, searcher)

	rec := doRequest(h, http.MethodPost, "/api/search/analyze", `{"query": "test"}`)

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["query"], "test", "query echoed")
	testutil.AssertEqual(t, body["total_results"], float64(1), "total_results")
}

func TestSearchAnalyzeMissingQuery(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/search/analyze", `{}`)

	testutil.AssertEqual(t, rec.Code, http.StatusBadRequest, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["status"], "error", "error status")
	testutil.AssertContains(t, body["error"].(string), "query", "error names the field")
}

func TestSearchAnalyzeInvalidJSON(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/search/analyze", `{not json`)
	testutil.AssertEqual(t, rec.Code, http.StatusBadRequest, "status code")
}

func TestSearchAnalyzeSearchFailure(t *testing.T) {
	searcher := &testutil.MockSearcher{Err: errFake("quota exceeded")}
	h := newTestHandlers(t, searcher)

	rec := doRequest(h, http.MethodPost, "/api/search/analyze", `{"query": "test"}`)

	testutil.AssertEqual(t, rec.Code, http.StatusInternalServerError, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["status"], "error", "error status")
	testutil.AssertEqual(t, body["step"], "search", "failing step attached")
	testutil.AssertContains(t, body["error"].(string), "quota exceeded", "upstream error surfaced")
}

type errFake string

func (e errFake) Error() string { return string(e) }

func TestListProviders(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodGet, "/api/providers", "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["status"], "success", "status")
	testutil.AssertEqual(t, body["total_providers"], float64(2), "total_providers")

	providers := body["providers"].([]any)
	first := providers[0].(map[string]any)
	// orden de registro, no alfabético
	testutil.AssertEqual(t, first["name"], "serpstack", "registration order")
}

func TestQueryPlain(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/query/plain",
		`{"provider": "ipapi", "query_type": "lookup", "params": {"ip": "1.1.1.1"}}`)

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["status"], "success", "status")
	testutil.AssertEqual(t, body["provider"], "ipapi", "provider echoed")
	testutil.AssertNotNil(t, body["data"], "provider data present")
}

func TestQueryEncrypted(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/query",
		`{"provider": "ipapi", "params": {"query_type": "lookup", "ip": "1.1.1.1"}}`)

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["sha256_hash"], "deadbeef", "digest present")
	testutil.AssertEqual(t, body["provider"], "ipapi", "provider echoed")

	chunks := body["encrypted_data"].([]any)
	testutil.AssertEqual(t, len(chunks), 2, "ciphertext chunks")
}

func TestQueryUnknownProvider(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/query/plain", `{"provider": "nope"}`)
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound, "status code")

	body := decodeBody(t, rec)
	testutil.AssertNotNil(t, body["available_providers"], "available providers listed")
}

func TestQueryMissingProvider(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodPost, "/api/query/plain", `{"params": {}}`)
	testutil.AssertEqual(t, rec.Code, http.StatusBadRequest, "status code")
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodGet, "/api/health", "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertEqual(t, body["status"], "healthy", "health status")
	testutil.AssertEqual(t, body["providers_available"], float64(2), "providers_available")
}

func TestIndex(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	rec := doRequest(h, http.MethodGet, "/", "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status code")

	body := decodeBody(t, rec)
	testutil.AssertNotNil(t, body["endpoints"], "endpoint catalog present")
}

func TestPublicKeyServedAndMissing(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	// Sin archivo: 404
	rec := doRequest(h, http.MethodGet, "/api/keys/public", "")
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound, "missing key file")

	// Con archivo: lo sirve como adjunto
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "public_key.pem")
	pem := "-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----\n"
	if err := os.WriteFile(keyPath, []byte(pem), 0o644); err != nil {
		t.Fatal(err)
	}
	h.publicKeyPath = keyPath

	rec = doRequest(h, http.MethodGet, "/api/keys/public", "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "key served")
	testutil.AssertContains(t, rec.Body.String(), "BEGIN PUBLIC KEY", "PEM body")
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	handler := Chain(panicking, Recovery(testLogger()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	testutil.AssertEqual(t, rec.Code, http.StatusInternalServerError, "panic becomes 500")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})

	handler := Chain(inner, RequestID())

	// Genera uno si no viene
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertNotEqual(t, seen, "", "request id generated")
	testutil.AssertEqual(t, rec.Header().Get("X-Request-ID"), seen, "id echoed in header")

	// Respeta el del cliente
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	testutil.AssertEqual(t, seen, "client-id", "client id preserved")
}

func TestMetricsEndpointExposed(t *testing.T) {
	h := newTestHandlers(t, &testutil.MockSearcher{})

	// Genera algo de tráfico para que existan series
	doRequest(h, http.MethodGet, "/api/health", "")

	rec := doRequest(h, http.MethodGet, "/metrics", "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "metrics scrape")
	testutil.AssertContains(t, rec.Body.String(), "netintel_", "service metrics present")
}

// ensure the real service satisfies the handler contract
var _ Analyzer = (*usecases.AnalyzeService)(nil)
