// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xmrtdao/eliza-gateway/internal/analytics"
	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/knowledge"
	"github.com/xmrtdao/eliza-gateway/internal/memory"
	"github.com/xmrtdao/eliza-gateway/internal/mining"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cascade.TierTimeoutSeconds = 1
	cfg.Context.MaxTokens = 2000
	cfg.Context.HistoryLimit = 10
	cfg.Context.Tokenizer = "simple"
	return cfg
}

// newTestServer builds a server with no provider tiers, so every chat
// request exhausts the cascade and is served by the local fallback.
func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	store, err := knowledge.Open(config.KnowledgeConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("knowledge.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	srv, err := NewServer(cfg, Deps{
		Resolver: creds.NewStore(),
		Sessions: memory.NewManager(0, 0),
		Store:    store,
		Poller:   mining.NewPoller(config.MiningConfig{}, nil),
		Window:   analytics.NewWindow(100),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := doJSON(t, srv.BuildRouter(), http.MethodGet, "/health", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestChat_FallbackWhenNoTiers(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	w := doJSON(t, router, http.MethodPost, "/v1/chat", gin.H{"message": "hello there"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("chat must report success even when served by fallback")
	}
	if resp.ServedBy != "fallback" {
		t.Errorf("want fallback, got %q", resp.ServedBy)
	}
	if resp.Attempts != 0 {
		t.Errorf("no tiers means no attempts, got %d", resp.Attempts)
	}
	if resp.Response == "" {
		t.Error("response text must never be empty")
	}
	if resp.SessionID == "" {
		t.Error("a session id must be assigned when none is given")
	}
}

func TestChat_SessionHistoryPersists(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	first := doJSON(t, router, http.MethodPost, "/v1/chat",
		gin.H{"message": "first", "session_id": "s1"}, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", first.Code)
	}

	history := srv.sessions.History("s1")
	if len(history) != 2 {
		t.Fatalf("want one recorded exchange, got %d turns", len(history))
	}
	if history[0].Content != "first" {
		t.Errorf("unexpected recorded user turn: %+v", history[0])
	}
}

func TestChat_IntentClassification(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	w := doJSON(t, router, http.MethodPost, "/v1/chat",
		gin.H{"message": "what is my hashrate"}, nil)

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Intent != "mining_stats" {
		t.Errorf("want mining_stats intent, got %q", resp.Intent)
	}
}

func TestChat_MissingMessage(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := doJSON(t, srv.BuildRouter(), http.MethodPost, "/v1/chat", gin.H{"session_id": "s1"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing message: want 400, got %d", w.Code)
	}
}

func TestMiningStats_NoSnapshot(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := doJSON(t, srv.BuildRouter(), http.MethodGet, "/v1/mining/stats", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("no snapshot: want 503, got %d", w.Code)
	}
}

func TestMetrics_ManagementAuth(t *testing.T) {
	hash, err := config.HashManagementKey("letmein")
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.ManagementKey = hash

	srv := newTestServer(t, cfg)
	router := srv.BuildRouter()

	if w := doJSON(t, router, http.MethodGet, "/v1/metrics", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: want 401, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/v1/metrics", nil, map[string]string{"X-Management-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: want 401, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/v1/metrics", nil, map[string]string{"X-Management-Key": "letmein"}); w.Code != http.StatusOK {
		t.Errorf("correct key: want 200, got %d", w.Code)
	}
}

func TestMetrics_CountsRequests(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	doJSON(t, router, http.MethodPost, "/v1/chat", gin.H{"message": "hi"}, nil)
	w := doJSON(t, router, http.MethodGet, "/v1/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}

	var snapshot map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot["total_requests"].(float64) != 1 {
		t.Errorf("want 1 total request, got %v", snapshot["total_requests"])
	}
	for _, key := range []string{"load_patterns", "traffic_patterns"} {
		if _, ok := snapshot[key]; !ok {
			t.Errorf("metrics snapshot missing %q", key)
		}
	}
}

func TestSimulate_MiningProfitability(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	w := doJSON(t, router, http.MethodPost, "/v1/simulate", gin.H{
		"scenario":   "mining_profitability",
		"parameters": gin.H{"hardware_hash_rate": 5000, "electricity_cost_kwh": 0.05},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Scenario   string  `json:"scenario"`
		Confidence float64 `json:"confidence_level"`
		Results    struct {
			DailyXMR   float64 `json:"daily_xmr_mined"`
			Profitable bool    `json:"profitable"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Scenario != "mining_profitability" {
		t.Errorf("scenario echo: got %q", result.Scenario)
	}
	if result.Confidence != 0.75 {
		t.Errorf("confidence: want 0.75, got %v", result.Confidence)
	}
	if result.Results.DailyXMR <= 0 {
		t.Errorf("daily XMR must be positive, got %v", result.Results.DailyXMR)
	}
}

func TestSimulate_NetworkCongestion(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	w := doJSON(t, router, http.MethodPost, "/v1/simulate", gin.H{
		"scenario":   "network_congestion",
		"parameters": gin.H{"tx_rate": 10},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Results struct {
			Level       string `json:"congestion_level"`
			QueueStatus string `json:"queue_status"`
		} `json:"results"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Results.Level != "critical" || result.Results.QueueStatus != "unbounded" {
		t.Errorf("over-capacity load: got %+v", result.Results)
	}
	if len(result.Recommendations) == 0 {
		t.Error("over-capacity load must carry recommendations")
	}
}

func TestSimulate_Rejections(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	if w := doJSON(t, router, http.MethodPost, "/v1/simulate", gin.H{"scenario": "token_listing"}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown scenario: want 400, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/v1/simulate", gin.H{"parameters": gin.H{}}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing scenario name: want 400, got %d", w.Code)
	}
}

func TestAddSnippet(t *testing.T) {
	srv := newTestServer(t, testConfig())
	router := srv.BuildRouter()

	w := doJSON(t, router, http.MethodPost, "/v1/knowledge",
		gin.H{"topic": "payouts", "content": "payouts run daily"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", w.Code, w.Body.String())
	}

	var snip knowledge.Snippet
	if err := json.Unmarshal(w.Body.Bytes(), &snip); err != nil {
		t.Fatal(err)
	}
	if snip.ID == "" || snip.Topic != "payouts" {
		t.Errorf("unexpected stored snippet: %+v", snip)
	}
}

func TestAddSnippet_Invalid(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := doJSON(t, srv.BuildRouter(), http.MethodPost, "/v1/knowledge", gin.H{"topic": "no content"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing content: want 400, got %d", w.Code)
	}
}

func TestArchiveSession_Disabled(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := doJSON(t, srv.BuildRouter(), http.MethodPost, "/v1/sessions/s1/archive", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("archiving disabled: want 503, got %d", w.Code)
	}
}

func TestApplyConfig_SwapsRuntime(t *testing.T) {
	srv := newTestServer(t, testConfig())

	next := testConfig()
	next.Tiers = []config.TierConfig{
		{Name: "local", Provider: "ollama", Model: "llama3", Priority: 1},
	}
	if err := srv.ApplyConfig(next); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if srv.state.Load().cfg != next {
		t.Error("runtime state must point at the new config")
	}
}

func TestApplyConfig_RejectsUnknownProvider(t *testing.T) {
	srv := newTestServer(t, testConfig())

	bad := testConfig()
	bad.Tiers = []config.TierConfig{{Name: "x", Provider: "bogus", Priority: 1}}
	if err := srv.ApplyConfig(bad); err == nil {
		t.Fatal("unknown provider must fail ApplyConfig")
	}
	// The previous runtime must survive a rejected reload.
	if srv.state.Load().cfg.Tiers != nil {
		t.Error("rejected config must not be applied")
	}
}
