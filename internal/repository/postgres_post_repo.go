package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/pawpost/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

var _ PostRepository = (*PostgresPostRepo)(nil)

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postSelectColumns はposts p と users u の結合から投稿を読み出すカラム列。
const postSelectColumns = `p.id, p.title, p.content, p.user_id, p.created_at, p.updated_at, u.email`

// Create は投稿を作成し、投稿者のメールアドレスを結合して返す。
func (r *PostgresPostRepo) Create(ctx context.Context, title, content string, authorID int64) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx,
		`WITH p AS (
			INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3)
			RETURNING id, title, content, user_id, created_at, updated_at
		)
		SELECT `+postSelectColumns+`
		FROM p JOIN users u ON u.id = p.user_id`,
		title, content, authorID,
	)

	post, err := scanPost(row)
	if isPQCode(err, pqForeignKeyViolation) {
		return nil, fmt.Errorf("failed to insert post: %w: %w", ErrForeignKeyViolation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

// ListAll は全投稿を作成日時の降順（同時刻はID降順）で返す。
func (r *PostgresPostRepo) ListAll(ctx context.Context) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postSelectColumns+`
		 FROM posts p JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC, p.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.PostWithAuthor{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID は指定IDの投稿を取得する。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postSelectColumns+`
		 FROM posts p JOIN users u ON u.id = p.user_id
		 WHERE p.id = $1`,
		id,
	)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

// UpdateOwned は所有者が一致する場合のみタイトルと本文を更新する。
// 所有者の判定と更新は同一文で行うため、確認から書き込みまでの間に競合は起きない。
func (r *PostgresPostRepo) UpdateOwned(ctx context.Context, id, ownerID int64, title, content string) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx,
		`WITH p AS (
			UPDATE posts SET title = $3, content = $4, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, title, content, user_id, created_at, updated_at
		)
		SELECT `+postSelectColumns+`
		FROM p JOIN users u ON u.id = p.user_id`,
		id, ownerID, title, content,
	)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// DeleteOwned は所有者が一致する場合のみ投稿を削除する。
func (r *PostgresPostRepo) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*model.PostWithAuthor, error) {
	post := &model.PostWithAuthor{}
	err := s.Scan(
		&post.ID, &post.Title, &post.Content, &post.UserID,
		&post.CreatedAt, &post.UpdatedAt, &post.AuthorEmail,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}
