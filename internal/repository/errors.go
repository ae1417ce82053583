package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound は対象レコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail はusers.emailの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrForeignKeyViolation は参照先レコードが存在しないことを示す。
	ErrForeignKeyViolation = errors.New("referenced record does not exist")
)

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// isPQCode はerrがcodeのpq.Errorかどうかを判定する。
func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
