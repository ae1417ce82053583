// Package post は投稿のCRUDと所有者チェックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/pawpost/internal/metrics"
	"github.com/hitoshi/pawpost/internal/model"
	"github.com/hitoshi/pawpost/internal/repository"
)

// Authorizer は投稿の変更権限を判定するインターフェース。
type Authorizer interface {
	Authorize(post *model.Post, actingUserID int64) error
}

// DenialRecorder は所有者チェックによる拒否の記録先。
type DenialRecorder interface {
	RecordOwnershipDenied(operation string)
}

// Service は投稿に関するビジネスロジックを提供する。
type Service struct {
	posts    repository.PostRepository
	guard    Authorizer
	recorder DenialRecorder
}

// NewService はServiceを生成する。
func NewService(posts repository.PostRepository, guard Authorizer, recorder DenialRecorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{posts: posts, guard: guard, recorder: recorder}
}

// Create は投稿を作成する。authorIDのユーザーが存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Create(ctx context.Context, title, content string, authorID int64) (*model.PostWithAuthor, error) {
	if err := validatePostInput(title, content, authorID); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, title, content, authorID)
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return nil, model.NewAuthorNotFoundError(authorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// List は全投稿を新しい順に返す。
func (s *Service) List(ctx context.Context) ([]model.PostWithAuthor, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Get は指定IDの投稿を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return post, nil
}

// Update は所有者本人による投稿の更新を行う。
// 書き込みは所有者条件付きの単一文で行い、該当行が無い場合のみ原因を判定する。
func (s *Service) Update(ctx context.Context, id, actingUserID int64, title, content string) (*model.PostWithAuthor, error) {
	if err := validatePostInput(title, content, actingUserID); err != nil {
		return nil, err
	}

	post, err := s.posts.UpdateOwned(ctx, id, actingUserID, title, content)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}

	return nil, s.classifyMiss(ctx, "update", id, actingUserID)
}

// Delete は所有者本人による投稿の削除を行う。
func (s *Service) Delete(ctx context.Context, id, actingUserID int64) error {
	if actingUserID <= 0 {
		return model.NewValidationError("userId is required")
	}

	err := s.posts.DeleteOwned(ctx, id, actingUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}

	return s.classifyMiss(ctx, "delete", id, actingUserID)
}

// classifyMiss は所有者条件付き書き込みが0行だった理由を判定する。
// 投稿が無ければPOST_NOT_FOUND、所有者不一致ならFORBIDDEN。
// 所有者は一致するのに書き込めなかった場合（並行削除）はPOST_NOT_FOUNDとする。
func (s *Service) classifyMiss(ctx context.Context, operation string, id, actingUserID int64) error {
	current, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewPostNotFoundError(id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up post %d: %w", id, err)
	}

	if err := s.guard.Authorize(&current.Post, actingUserID); err != nil {
		slog.Warn("post ownership denied",
			slog.String("operation", operation),
			slog.Int64("post_id", id),
			slog.Int64("acting_user_id", actingUserID),
		)
		s.recorder.RecordOwnershipDenied(operation)
		return err
	}

	return model.NewPostNotFoundError(id)
}

func validatePostInput(title, content string, userID int64) error {
	if title == "" || content == "" || userID <= 0 {
		return model.NewValidationError("Title, content and userId are required")
	}
	return nil
}
