// Package user はユーザー管理のドメインロジックを提供する。
// 座標系フィールドをジップコードと整合させる唯一のコンポーネントであり、
// 作成・更新時の天気ルックアップのオーケストレーションを担う。
package user

import (
	"context"
	"log/slog"

	"github.com/hitoshi/geousers/internal/model"
	"github.com/hitoshi/geousers/internal/repository"
	"github.com/hitoshi/geousers/internal/schema"
)

// WeatherLookup はジップコードから座標とタイムゾーンを取得するインターフェース。
type WeatherLookup interface {
	LookupByZipcode(ctx context.Context, zipcode string) (*model.Weather, error)
}

// NameSanitizer はクライアント入力の表示名をサニタイズするインターフェース。
type NameSanitizer interface {
	Sanitize(name string) string
}

// Service はユーザー管理のサービス層。
// 不変条件: レコードのlatitude/longitude/timezoneは常に、その時点のzipcodeに
// 対する最後に成功したルックアップの値と一致する。zipcodeが変わる書き込みは
// 必ず新しいルックアップを経由し、変わらない書き込みはルックアップを行わない。
type Service struct {
	repo      repository.UserRepository
	lookup    WeatherLookup
	sanitizer NameSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.UserRepository, lookup WeatherLookup, sanitizer NameSanitizer) *Service {
	return &Service{
		repo:      repo,
		lookup:    lookup,
		sanitizer: sanitizer,
	}
}

// List は全ユーザーを取得する。コレクションが空の場合は空スライスを返す。
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	return s.repo.ListAll(ctx)
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return u, nil
}

// Create はユーザーを作成する。
// 入力検証 → 天気ルックアップ → ストア書き込みの順で、
// ルックアップの失敗は分類・メッセージを変えずにそのまま伝播する。
func (s *Service) Create(ctx context.Context, name, zipcode string) (*model.User, error) {
	name = s.sanitizeName(name)

	req := &schema.CreateUserRequest{Name: name, Zipcode: zipcode}
	if err := schema.ValidateCreateUserRequest(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	w, err := s.lookup.LookupByZipcode(ctx, zipcode)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, model.CreateUserParams{
		Name:      name,
		Zipcode:   zipcode,
		Latitude:  w.Coord.Lat,
		Longitude: w.Coord.Lon,
		Timezone:  w.Timezone,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", created.ID),
		slog.String("zipcode", created.Zipcode),
	)

	return created, nil
}

// Update はユーザーを部分更新する。
// zipcodeが指定され、かつ保存済みのzipcodeと文字列として異なる場合のみ
// 天気ルックアップを1回だけ実行し、座標系3フィールドを揃えて上書きする。
// 比較は正規化なしの文字列比較で、"12345"と"012345"は別物として扱う。
// ルックアップが失敗した場合、保存済みレコードには一切触れない。
func (s *Service) Update(ctx context.Context, id, name, zipcode string) (*model.User, error) {
	name = s.sanitizeName(name)

	req := &schema.UpdateUserRequest{Name: name, Zipcode: zipcode}
	if err := schema.ValidateUpdateUserRequest(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	patch := model.UserPatch{
		Name:    name,
		Zipcode: zipcode,
	}

	if zipcode != "" && zipcode != current.Zipcode {
		w, err := s.lookup.LookupByZipcode(ctx, zipcode)
		if err != nil {
			return nil, err
		}

		patch.Latitude = &w.Coord.Lat
		patch.Longitude = &w.Coord.Lon
		patch.Timezone = &w.Timezone
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	slog.Info("ユーザーを更新しました",
		slog.String("user_id", updated.ID),
		slog.String("zipcode", updated.Zipcode),
	)

	return updated, nil
}

// Delete はユーザーを削除する。ストアへの素通しで、削除前の存在確認はストア側が行う。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewUserNotFoundError(id)
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)

	return nil
}

// sanitizeName は表示名からHTMLを除去する。sanitizer未設定の場合はそのまま返す。
func (s *Service) sanitizeName(name string) string {
	if s.sanitizer == nil {
		return name
	}
	return s.sanitizer.Sanitize(name)
}
