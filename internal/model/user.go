package model

import "time"

// User は登録済みユーザーを表す。
// PasswordHashはレスポンスにもログにも出力しない。
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
