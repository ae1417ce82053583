// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/pawpost/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。emailが登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はErrNotFoundを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はErrNotFoundを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// PostRepository は投稿データの永続化インターフェース。
// 返却する投稿にはすべて投稿者のメールアドレスが結合される。
type PostRepository interface {
	// Create は投稿を作成する。authorIDのユーザーが存在しない場合はErrForeignKeyViolationを返す。
	Create(ctx context.Context, title, content string, authorID int64) (*model.PostWithAuthor, error)

	// ListAll は全投稿を作成日時の新しい順に返す。
	ListAll(ctx context.Context) ([]model.PostWithAuthor, error)

	// FindByID は指定IDの投稿を取得する。見つからない場合はErrNotFoundを返す。
	FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error)

	// UpdateOwned はownerIDが所有する投稿のタイトルと本文を単一文で更新する。
	// 該当行が無い場合（不存在または所有者不一致）はErrNotFoundを返す。
	UpdateOwned(ctx context.Context, id, ownerID int64, title, content string) (*model.PostWithAuthor, error)

	// DeleteOwned はownerIDが所有する投稿を単一文で削除する。
	// 該当行が無い場合はErrNotFoundを返す。
	DeleteOwned(ctx context.Context, id, ownerID int64) error
}

// FactRepository はdog factsの読み取りインターフェース。
type FactRepository interface {
	// ListAll は全件をID順に返す。0件の場合は空スライスを返す。
	ListAll(ctx context.Context) ([]model.DogFact, error)
}
