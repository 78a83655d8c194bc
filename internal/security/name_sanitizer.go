package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NameSanitizerService はクライアント入力の表示名のサニタイズ機能のインターフェースを定義する。
// 表示名はフロントエンドでそのまま描画されるため、保存前にHTMLを除去する。
type NameSanitizerService interface {
	// Sanitize は表示名からすべてのHTMLタグを除去し、前後の空白を取り除いて返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(name string) string
}

// nameSanitizer はNameSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに処理する。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerServiceの新しいインスタンスを生成する。
// 表示名は書式を持たない平文であるため、許可タグなしのStrictPolicyを使用する。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名からすべてのHTMLタグを除去する。
// bluemondayはタグ除去後にエンティティをエスケープした形で返すため、
// 平文として保存できるようアンエスケープしてから前後の空白を取り除く。
func (s *nameSanitizer) Sanitize(name string) string {
	if name == "" {
		return ""
	}

	cleaned := s.policy.Sanitize(name)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
