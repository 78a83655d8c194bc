package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/geousers/internal/model"
	"github.com/hitoshi/geousers/internal/schema"
)

// defaultTable はユーザーコレクションのデフォルトテーブル名。
const defaultTable = "users"

// PostgresUserRepo はPostgreSQLのJSONBドキュメントとしてユーザーを保存するリポジトリ。
// 1レコード = 1行で、docカラムにレコード全体をJSONで保持する。
// 書き込みは常にドキュメント全体の置換であり、行単位の原子性はDBに委ねる。
type PostgresUserRepo struct {
	db    *sql.DB
	table string
	// newID はID採番関数。テストで決定的なIDに差し替え可能。
	newID func() string
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return NewPostgresUserRepoWithTable(db, defaultTable)
}

// NewPostgresUserRepoWithTable はテーブル名を指定してPostgresUserRepoを生成する。
// テスト・エフェメラル環境でコレクションを別名前空間（例: test_users）に
// 分離する場合に使用する。
func NewPostgresUserRepoWithTable(db *sql.DB, table string) *PostgresUserRepo {
	return &PostgresUserRepo{
		db:    db,
		table: table,
		newID: uuid.NewString,
	}
}

// SetIDGenerator はID採番関数を差し替える。
func (r *PostgresUserRepo) SetIDGenerator(fn func() string) {
	r.newID = fn
}

// ListAll はコレクション全体を取得する。空の場合は空スライスを返す。
// 最初に検証に失敗したレコードで全体を失敗させる。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s ORDER BY created_at, id`, pq.QuoteIdentifier(r.table)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user doc: %w", err)
		}

		user, err := r.decodeDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, pq.QuoteIdentifier(r.table)),
		id,
	).Scan(&doc)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return r.decodeDoc(doc)
}

// Create は新しいIDを採番し、レコード全体を検証してから書き込む。
// IDは暗号学的乱数由来のUUIDで、衝突は無視できるものとして明示チェックしない。
func (r *PostgresUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	user := &model.User{
		ID:        r.newID(),
		Name:      params.Name,
		Zipcode:   params.Zipcode,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		Timezone:  params.Timezone,
	}

	if err := schema.ValidateUser(user); err != nil {
		return nil, fmt.Errorf("user record failed validation before write: %w", err)
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user doc: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, pq.QuoteIdentifier(r.table)),
		user.ID, doc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// Update は現在のレコードを取得し、patchをマージして全置換で書き込む。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	merged := mergeUser(current, patch)

	if err := schema.ValidateUser(merged); err != nil {
		return nil, fmt.Errorf("user record failed validation before write: %w", err)
	}

	doc, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user doc: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = $2, updated_at = now() WHERE id = $1`, pq.QuoteIdentifier(r.table)),
		id, doc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return merged, nil
}

// Delete は指定IDのレコードを削除する。
// 存在確認を先に行い、存在しない場合は削除を実行せずfalseを返す。
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, pq.QuoteIdentifier(r.table)),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	return true, nil
}

// DeleteAll はコレクションを一括クリアする。
func (r *PostgresUserRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s`, pq.QuoteIdentifier(r.table)),
	)
	if err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	return nil
}

// decodeDoc は保存済みドキュメントを復元してスキーマ検証する。
// 不正なドキュメントは読み飛ばさず、USER_RECORD_INVALIDとして表面化させる。
func (r *PostgresUserRepo) decodeDoc(doc []byte) (*model.User, error) {
	var user model.User
	if err := json.Unmarshal(doc, &user); err != nil {
		slog.Error("保存済みユーザードキュメントの解析に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUserRecordInvalidError()
	}

	if err := schema.ValidateUser(&user); err != nil {
		slog.Error("保存済みユーザードキュメントのスキーマ検証に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUserRecordInvalidError()
	}

	return &user, nil
}

// mergeUser は部分更新フィールドを既存レコードにマージする。
// NameとZipcodeは空文字列なら既存値を維持する。
// 座標系フィールドは非nilの場合のみ上書きする（ルックアップで3つ揃って設定される）。
func mergeUser(current *model.User, patch model.UserPatch) *model.User {
	merged := *current

	if patch.Name != "" {
		merged.Name = patch.Name
	}
	if patch.Zipcode != "" {
		merged.Zipcode = patch.Zipcode
	}
	if patch.Latitude != nil {
		merged.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		merged.Longitude = *patch.Longitude
	}
	if patch.Timezone != nil {
		merged.Timezone = *patch.Timezone
	}

	return &merged
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
