package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes はbcryptが入力として扱える最大バイト数。
const maxPasswordBytes = 72

var (
	// ErrPasswordTooLong は平文パスワードがbcryptの上限を超えていることを示す。
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrMalformedHash は保存済みハッシュが壊れていて照合できないことを示す。
	ErrMalformedHash = errors.New("malformed password hash")
)

// Hasher はbcryptによるパスワードのハッシュ化と照合を行う。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。costはbcryptの許容範囲に丸める。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost は実際に使用するbcryptコストを返す。
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash は平文パスワードからソルト付きハッシュを生成する。
// 同じ平文でも呼び出しごとに異なるハッシュになる。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify は平文パスワードとハッシュを照合する。
// 不一致は(false, nil)、ハッシュ自体が壊れている場合はErrMalformedHashを返す。
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}
