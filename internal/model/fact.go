package model

import "time"

// DogFact は犬に関する豆知識1件。
type DogFact struct {
	ID        int64
	Fact      string
	CreatedAt time.Time
}
