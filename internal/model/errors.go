// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 成功値とエラーは同時に返らない。すべてのコア操作は
// (値, error) の形でこのエラーを伝播する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, user, weather, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeWeatherBadRequest = "WEATHER_BAD_REQUEST"
	ErrCodeWeatherParse      = "WEATHER_PARSE_FAILED"
	ErrCodeWeatherInternal   = "WEATHER_INTERNAL"
	ErrCodeUserRecordInvalid = "USER_RECORD_INVALID"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewValidationError は入力バリデーションエラーを生成する。
// detailには最初に失敗したルールの説明を渡す。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", id),
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewWeatherBadRequestError はプロバイダがジップコードを拒否した場合のエラーを生成する。
// providerMessageが空でない場合はそのまま埋め込む（分類・メッセージは改変せず伝播する）。
func NewWeatherBadRequestError(providerMessage string) *APIError {
	if providerMessage == "" {
		providerMessage = "bad request"
	}
	return &APIError{
		Code:     ErrCodeWeatherBadRequest,
		Message:  fmt.Sprintf("天気情報を取得できませんでした: %s", providerMessage),
		Category: "weather",
		Action:   "ジップコードを確認してください。",
	}
}

// NewWeatherParseError は天気レスポンスの構造検証失敗エラーを生成する。
// プロバイダ固有の詳細はログにのみ残し、メッセージには含めない。
func NewWeatherParseError() *APIError {
	return &APIError{
		Code:     ErrCodeWeatherParse,
		Message:  "天気情報の解析に失敗しました。",
		Category: "weather",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewWeatherInternalError は天気プロバイダへの通信障害エラーを生成する。
func NewWeatherInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeWeatherInternal,
		Message:  "天気情報の取得中に内部エラーが発生しました。",
		Category: "weather",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserRecordInvalidError は保存済みレコードの構造検証失敗エラーを生成する。
// ストレージ内部の詳細はログにのみ残す。
func NewUserRecordInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeUserRecordInvalid,
		Message:  "ユーザーデータの読み取りに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は一般的な内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
