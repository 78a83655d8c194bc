// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 天気ルックアップの成否・レイテンシとHTTPステータスコードを記録する。
type Collector struct {
	lookupSuccess prometheus.Counter
	lookupFail    *prometheus.CounterVec
	lookupLatency prometheus.Histogram
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lookupSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geousers_weather_lookup_success_total",
			Help: "天気ルックアップ成功の合計数",
		}),
		lookupFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geousers_weather_lookup_fail_total",
			Help: "天気ルックアップ失敗のエラーコード別合計数",
		}, []string{"code"}),
		lookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geousers_weather_lookup_latency_seconds",
			Help:    "天気ルックアップのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geousers_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.lookupSuccess,
		c.lookupFail,
		c.lookupLatency,
		c.httpStatus,
	)

	return c
}

// RecordLookupSuccess はルックアップ成功を記録する。
func (c *Collector) RecordLookupSuccess() {
	c.lookupSuccess.Inc()
}

// RecordLookupFailure はルックアップ失敗をエラーコード付きで記録する。
func (c *Collector) RecordLookupFailure(code string) {
	c.lookupFail.WithLabelValues(code).Inc()
}

// RecordLookupLatency はルックアップのレイテンシを記録する。
func (c *Collector) RecordLookupLatency(duration time.Duration) {
	c.lookupLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
