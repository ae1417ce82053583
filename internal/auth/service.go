// Package auth はパスワードハッシュと登録・ログイン処理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/pawpost/internal/metrics"
	"github.com/hitoshi/pawpost/internal/model"
	"github.com/hitoshi/pawpost/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// OutcomeRecorder は認証結果の記録先。
type OutcomeRecorder interface {
	RecordAuthOutcome(operation, outcome string)
}

// dummyPassword はユーザー未検出時の照合に使うハッシュの元になる平文。
const dummyPassword = "pawpost-timing-equalizer"

// Service は登録・ログインのビジネスロジックを提供する。
// セッションは発行せず、リクエストごとに資格情報を検証する。
type Service struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	recorder  OutcomeRecorder
	dummyHash string
}

// NewService はServiceを生成する。
// ユーザー未検出時もbcrypt照合を行うため、起動時にダミーハッシュを1回生成する。
func NewService(users repository.UserRepository, hasher PasswordHasher, recorder OutcomeRecorder) (*Service, error) {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		recorder:  recorder,
		dummyHash: dummy,
	}, nil
}

// Register は新規ユーザーを登録する。
// emailまたはpasswordが空の場合はストアに触れずにValidationErrorを返す。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		s.recorder.RecordAuthOutcome("register", metrics.OutcomeInvalidInput)
		return nil, model.NewValidationError("Email and password required")
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, ErrPasswordTooLong) {
		s.recorder.RecordAuthOutcome("register", metrics.OutcomeInvalidInput)
		return nil, model.NewValidationError("Password must be at most 72 bytes")
	}
	if err != nil {
		s.recorder.RecordAuthOutcome("register", metrics.OutcomeError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, hash)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.recorder.RecordAuthOutcome("register", metrics.OutcomeDuplicateEmail)
		return nil, model.NewEmailAlreadyExistsError()
	}
	if err != nil {
		s.recorder.RecordAuthOutcome("register", metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID))
	s.recorder.RecordAuthOutcome("register", metrics.OutcomeSuccess)
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、一致したユーザーを返す。
// ユーザーが存在しない場合もダミーハッシュと照合し、応答時間の差を小さくする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		s.recorder.RecordAuthOutcome("login", metrics.OutcomeInvalidInput)
		return nil, model.NewValidationError("Email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		_, _ = s.hasher.Verify(password, s.dummyHash)
		s.recorder.RecordAuthOutcome("login", metrics.OutcomeUserNotFound)
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		s.recorder.RecordAuthOutcome("login", metrics.OutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.recorder.RecordAuthOutcome("login", metrics.OutcomeError)
		return nil, fmt.Errorf("failed to verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.recorder.RecordAuthOutcome("login", metrics.OutcomeInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	s.recorder.RecordAuthOutcome("login", metrics.OutcomeSuccess)
	return user, nil
}
