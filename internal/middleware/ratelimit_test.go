package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// --- GeneralMiddleware のテスト ---

func TestGeneralMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		MutationRate:    1,
		MutationBurst:   10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_BlocksRequestsOverBurst(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     rate.Limit(0.1), // 補充をほぼ止める
		GeneralBurst:    2,
		MutationRate:    1,
		MutationBurst:   10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト2を使い切る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// 3リクエスト目は429
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("429レスポンスにRetry-Afterヘッダーが含まれるべき")
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスの解析に失敗した: %v", err)
	}
	if body["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %v, want RATE_LIMIT_EXCEEDED", body["code"])
	}
}

func TestGeneralMiddleware_IsolatesClients(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     rate.Limit(0.1),
		GeneralBurst:    1,
		MutationRate:    1,
		MutationBurst:   10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// client1 がバーストを使い切る
	req1 := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req1.RemoteAddr = "203.0.113.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	req1b := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req1b.RemoteAddr = "203.0.113.1:12345"
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1b)
	if w1.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("client1 の2回目: status = %d, want 429", w1.Result().StatusCode)
	}

	// client2 には影響しない
	req2 := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req2.RemoteAddr = "203.0.113.2:12345"
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("client2 の1回目: status = %d, want 200", w2.Result().StatusCode)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("リミッターエントリ数 = %d, want 2", rl.GeneralLimiterCount())
	}
}

// --- MutationMiddleware のテスト ---

func TestMutationMiddleware_IndependentFromGeneral(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     rate.Limit(0.1),
		GeneralBurst:    1,
		MutationRate:    rate.Limit(0.1),
		MutationBurst:   1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mutation := rl.MutationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// API全般のバーストを使い切る
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	general.ServeHTTP(httptest.NewRecorder(), req)

	// 書き込み系リミッターは独立しているため、まだ通る
	reqM := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	reqM.RemoteAddr = "203.0.113.1:12345"
	wM := httptest.NewRecorder()
	mutation.ServeHTTP(wM, reqM)

	if wM.Result().StatusCode != http.StatusOK {
		t.Errorf("書き込み系は独立して制限されるべき: status = %d, want 200", wM.Result().StatusCode)
	}
}

func TestMutationMiddleware_BlocksOverBurst(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     10,
		GeneralBurst:    100,
		MutationRate:    rate.Limit(0.1),
		MutationBurst:   1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.MutationMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	req1.RemoteAddr = "203.0.113.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	req2 := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	req2.RemoteAddr = "203.0.113.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req2)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}

// --- cleanup のテスト ---

func TestRateLimiter_Cleanup_RemovesStaleEntries(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		MutationRate:    1,
		MutationBurst:   1,
		CleanupInterval: 10 * time.Millisecond,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("リミッターエントリ数 = %d, want 1", rl.GeneralLimiterCount())
	}

	// TTL（CleanupInterval * 2）経過後にクリーンアップされるまで待つ
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("期限切れエントリがクリーンアップされるべき: %d entries", rl.GeneralLimiterCount())
}

// --- clientIP のテスト ---

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"IPv4とポート", "203.0.113.1:12345", "203.0.113.1"},
		{"IPv6とポート", "[2001:db8::1]:12345", "2001:db8::1"},
		{"ポートなし", "203.0.113.1", "203.0.113.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
