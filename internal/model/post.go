package model

import "time"

// Post はユーザーが作成した投稿を表す。
// UserIDは作成時に確定し、以後変更されない。
type Post struct {
	ID        int64
	Title     string
	Content   string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostWithAuthor は表示用に投稿者のメールアドレスを結合した投稿。
type PostWithAuthor struct {
	Post
	AuthorEmail string
}
