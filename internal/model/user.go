// Package model はドメインモデルを定義する。
package model

// User はジオコーディング済みのユーザーレコードを表す。
// Latitude・Longitude・Timezoneはクライアントから直接受け取らず、
// 常に現在のZipcodeに対する最後に成功した天気ルックアップの値を保持する。
// JSONタグはドキュメントストアに保存されるドキュメントの形をそのまま定義する。
type User struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Zipcode string `json:"zipcode" validate:"required"`
	// Latitude / Longitude は度単位の座標。
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	// Timezone はUTCからのオフセット（秒）。
	Timezone int `json:"timezone"`
}

// CreateUserParams はユーザー作成時にストアへ渡す全フィールド。
// IDはストア側で採番する。
type CreateUserParams struct {
	Name      string
	Zipcode   string
	Latitude  float64
	Longitude float64
	Timezone  int
}

// UserPatch はユーザー更新の部分更新フィールド。
// NameとZipcodeは空文字列の場合、既存値を維持する。
// 座標系フィールドはポインタで、非nilの場合のみ上書きする。
// ジップコード変更時のルックアップで3つ揃って設定され、単独では設定されない。
type UserPatch struct {
	Name      string
	Zipcode   string
	Latitude  *float64
	Longitude *float64
	Timezone  *int
}
