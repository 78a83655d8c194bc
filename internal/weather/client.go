// Package weather は天気プロバイダ連携機能を提供する。
// ジップコードから座標とタイムゾーンを取得し、プロバイダ固有の
// 失敗シグナルを共通のAPIError分類に正規化する。
package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/geousers/internal/model"
	"github.com/hitoshi/geousers/internal/schema"
)

const (
	// defaultEndpoint はOpenWeatherMapの現在天気APIのエンドポイント。
	defaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	// codSuccess はプロバイダの成功を示すステータスコード。
	codSuccess = 200
)

// LookupRecorder はルックアップのメトリクス記録インターフェース。
// nilの場合は記録しない。
type LookupRecorder interface {
	RecordLookupSuccess()
	RecordLookupFailure(code string)
	RecordLookupLatency(duration time.Duration)
}

// Client は天気プロバイダのクライアント。
// 1回のルックアップにつき1回のHTTP GETを発行する。
// リトライ・キャッシュ・プロバイダ側レート制限は行わない。
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   LookupRecorder
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientには本番環境ではSSRF防止機能付きのクライアントを渡す。
// recorderはnil可。
func NewClient(apiKey string, httpClient *http.Client, logger *slog.Logger, recorder LookupRecorder) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		endpoint:   defaultEndpoint,
	}
}

// SetEndpoint はプロバイダのエンドポイントを差し替える。
// セルフホストのプロキシやテストサーバーを指す場合に使用する。
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// envelope はプロバイダレスポンスからステータスのみを抜き出すスキーマ。
// codはプロバイダが数値と文字列の両方で返すため、生のトークンで受けて強制変換する。
type envelope struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
}

// weatherPayload は天気ペイロード全体のワイヤ形式。
type weatherPayload struct {
	Coord      model.Coord              `json:"coord"`
	Conditions []model.WeatherCondition `json:"weather"`
	Timezone   int                      `json:"timezone"`
	CityID     int64                    `json:"id"`
	CityName   string                   `json:"name"`
	Cod        json.RawMessage          `json:"cod"`
}

// LookupByZipcode はジップコードから座標とタイムゾーンを取得する。
// 失敗はすべてAPIErrorに分類して返し、未分類のエラーは呼び出し元に漏らさない。
//   - レスポンスの構造検証失敗: WEATHER_PARSE_FAILED
//   - プロバイダのcodが200以外: WEATHER_BAD_REQUEST（プロバイダのメッセージをそのまま保持）
//   - 通信障害: WEATHER_INTERNAL
func (c *Client) LookupByZipcode(ctx context.Context, zipcode string) (*model.Weather, error) {
	if zipcode == "" {
		return nil, model.NewValidationError("zipcode が空です")
	}

	start := time.Now()
	w, err := c.lookup(ctx, zipcode)
	c.recordResult(time.Since(start), err)
	return w, err
}

func (c *Client) lookup(ctx context.Context, zipcode string) (*model.Weather, error) {
	// リクエストURL構築
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		c.logger.Error("エンドポイントURLのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherInternalError()
	}

	q := reqURL.Query()
	q.Set("zip", zipcode)
	q.Set("appid", c.apiKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		c.logger.Error("HTTPリクエストの作成に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherInternalError()
	}
	req.Header.Set("User-Agent", "Geousers/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("天気プロバイダの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("zipcode", zipcode),
		)
		return nil, model.NewWeatherInternalError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherInternalError()
	}

	// エンベロープ検証: プロバイダのステータスコードのみを先に取り出す
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("天気レスポンスのエンベロープ解析に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherParseError()
	}

	cod, err := coerceCod(env.Cod)
	if err != nil {
		c.logger.Error("天気レスポンスのcodが不正です",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherParseError()
	}

	// プロバイダのリクエストレベル失敗（ジップコード未検出等）
	if cod != codSuccess {
		return nil, model.NewWeatherBadRequestError(env.Message)
	}

	// ペイロード全体の検証
	var payload weatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error("天気ペイロードの解析に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherParseError()
	}

	w := &model.Weather{
		Coord:      payload.Coord,
		Conditions: payload.Conditions,
		Timezone:   payload.Timezone,
		CityID:     payload.CityID,
		CityName:   payload.CityName,
		Cod:        cod,
	}

	if err := schema.ValidateWeather(w); err != nil {
		c.logger.Error("天気ペイロードのスキーマ検証に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewWeatherParseError()
	}

	return w, nil
}

// recordResult はルックアップの結果と所要時間をメトリクスに記録する。
func (c *Client) recordResult(duration time.Duration, err error) {
	if c.recorder == nil {
		return
	}

	c.recorder.RecordLookupLatency(duration)
	if err == nil {
		c.recorder.RecordLookupSuccess()
		return
	}

	code := model.ErrCodeWeatherInternal
	if apiErr, ok := err.(*model.APIError); ok {
		code = apiErr.Code
	}
	c.recorder.RecordLookupFailure(code)
}

// coerceCod はcodの生トークンを整数に強制変換する。
// プロバイダは成功時に数値、エラー時に文字列（例: "404"）で返すことがある。
func coerceCod(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("cod がありません")
	}

	token := bytes.Trim(bytes.TrimSpace(raw), `"`)
	f, err := strconv.ParseFloat(string(token), 64)
	if err != nil {
		return 0, fmt.Errorf("cod を数値に変換できません: %q", raw)
	}

	return int(f), nil
}
