package post

import "github.com/hitoshi/pawpost/internal/model"

// Guard は投稿に対する変更権限を判定する。
type Guard struct{}

// NewGuard はGuardを生成する。
func NewGuard() *Guard {
	return &Guard{}
}

// Authorize はactingUserIDが投稿の所有者であればnilを返す。
// それ以外はFORBIDDENのAPIErrorを返す。
func (g *Guard) Authorize(post *model.Post, actingUserID int64) error {
	if post == nil || post.UserID != actingUserID {
		return model.NewForbiddenError()
	}
	return nil
}
