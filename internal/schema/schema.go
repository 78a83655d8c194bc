// Package schema は宣言的なスキーマ検証を提供する。
//
// 検証ルールはすべて構造体のvalidateタグとして宣言し、
// go-playground/validatorの汎用バリデータで評価する。
// フィールドごとの手書きチェックを各層に散らさず、
// ルールをこのパッケージで一元管理する。
// 検証の失敗分類（入力エラーか内部エラーか）は呼び出し側の責務とし、
// このパッケージは最初に違反したルールの説明のみを返す。
package schema

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/geousers/internal/model"
)

// validate はパッケージ共有のバリデータインスタンス。
// validatorはスレッドセーフであり、タグのパース結果をキャッシュする。
var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateUserRequest はユーザー作成リクエストのスキーマ。
// nameとzipcodeは必須。座標系フィールドはクライアントから受け取らない。
type CreateUserRequest struct {
	Name    string `json:"name" validate:"required"`
	Zipcode string `json:"zipcode" validate:"required"`
}

// UpdateUserRequest はユーザー更新リクエストのスキーマ。
// すべてのフィールドは省略可能。
type UpdateUserRequest struct {
	Name    string `json:"name" validate:"omitempty"`
	Zipcode string `json:"zipcode" validate:"omitempty"`
}

// ValidateCreateUserRequest は作成リクエストの形を検証する。
func ValidateCreateUserRequest(req *CreateUserRequest) error {
	return firstViolation(validate.Struct(req))
}

// ValidateUpdateUserRequest は更新リクエストの形を検証する。
func ValidateUpdateUserRequest(req *UpdateUserRequest) error {
	return firstViolation(validate.Struct(req))
}

// ValidateUser はユーザーレコード全体を検証する。
// ストアへの書き込み前と読み出し後の両方の境界で呼ばれる。
func ValidateUser(u *model.User) error {
	return firstViolation(validate.Struct(u))
}

// ValidateWeather は天気ペイロード全体を検証する。
func ValidateWeather(w *model.Weather) error {
	return firstViolation(validate.Struct(w))
}

// firstViolation はvalidatorのエラーから最初の違反のみを説明文にして返す。
// 違反がない場合はnilを返す。
func firstViolation(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		v := verrs[0]
		if v.Param() != "" {
			return fmt.Errorf("%s: %s=%s に違反", v.Field(), v.Tag(), v.Param())
		}
		return fmt.Errorf("%s: %s に違反", v.Field(), v.Tag())
	}

	// InvalidValidationError等、フィールド違反以外はそのまま返す
	return err
}
