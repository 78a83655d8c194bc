// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/geousers/internal/model"
)

// UserRepository はユーザードキュメントの永続化インターフェース。
// コレクションはidをキーとするドキュメントストアであり、
// すべての読み書き境界でレコード全体のスキーマ検証を行う。
type UserRepository interface {
	// ListAll はコレクション全体を取得する。空の場合は空スライスを返す。
	// 検証に失敗したレコードが1件でもあれば全体を失敗させる（部分結果は返さない）。
	ListAll(ctx context.Context) ([]model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// 保存済みドキュメントが不正な場合はUSER_RECORD_INVALIDを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create は新しいIDを採番してレコードを組み立て、検証してから書き込む。
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)

	// Update は現在のレコードを取得し、patchの指定フィールドをマージして
	// 全置換で書き込む。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)

	// Delete は指定IDのレコードを削除する。
	// レコードが存在しない場合は削除を行わずfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteAll はコレクションを一括クリアする。
	// テスト・エフェメラル環境向けの機能であり、通常運用では使用しない。
	DeleteAll(ctx context.Context) error
}
