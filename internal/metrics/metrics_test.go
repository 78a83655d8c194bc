package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLookupSuccess_IncrementsCounter はルックアップ成功カウンタが増加することを検証する。
func TestRecordLookupSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLookupSuccess()
	c.RecordLookupSuccess()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "geousers_weather_lookup_success_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 2 {
				t.Errorf("lookup_success_total = %v, want 2", val)
			}
		}
	}
	if !found {
		t.Error("geousers_weather_lookup_success_total metric not found")
	}
}

// TestRecordLookupFailure_IncrementsCounterWithCode はルックアップ失敗カウンタが
// エラーコードラベル付きで増加することを検証する。
func TestRecordLookupFailure_IncrementsCounterWithCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLookupFailure("WEATHER_BAD_REQUEST")
	c.RecordLookupFailure("WEATHER_BAD_REQUEST")
	c.RecordLookupFailure("WEATHER_INTERNAL")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "geousers_weather_lookup_fail_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label series, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				code := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch code {
				case "WEATHER_BAD_REQUEST":
					if val != 2 {
						t.Errorf("WEATHER_BAD_REQUEST = %v, want 2", val)
					}
				case "WEATHER_INTERNAL":
					if val != 1 {
						t.Errorf("WEATHER_INTERNAL = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected code label: %s", code)
				}
			}
		}
	}
	if !found {
		t.Error("geousers_weather_lookup_fail_total metric not found")
	}
}

// TestRecordLookupLatency_ObservesHistogram はレイテンシのヒストグラムが
// サンプルを記録することを検証する。
func TestRecordLookupLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLookupLatency(150 * time.Millisecond)
	c.RecordLookupLatency(300 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "geousers_weather_lookup_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 2 {
				t.Errorf("sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("geousers_weather_lookup_latency_seconds metric not found")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithStatusCode はHTTPステータスカウンタが
// ステータスコードラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(200)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "geousers_http_status_total" {
			found = true
			for _, m := range mf.GetMetric() {
				code := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				if code == "200" && val != 2 {
					t.Errorf("status 200 = %v, want 2", val)
				}
				if code == "404" && val != 1 {
					t.Errorf("status 404 = %v, want 1", val)
				}
			}
		}
	}
	if !found {
		t.Error("geousers_http_status_total metric not found")
	}
}

// TestHandler_ExposesMetrics は/metricsハンドラーがPrometheusテキスト形式で
// メトリクスを公開することを検証する。
func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLookupSuccess()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "geousers_weather_lookup_success_total 1") {
		t.Errorf("metrics output should contain lookup success counter: %s", body)
	}
}
