package entity

import (
	"time"

	"github.com/google/uuid"
)

// Rank fetch statuses.
const (
	RankStatusPending = "pending"
	RankStatusFetched = "fetched"
	RankStatusFailed  = "failed"
)

// KeywordRank is one MEO rank registration: the map-search position of a
// shop for a keyword on a given date. Unique on (shop_id, keyword,
// target_date); registering the same triple twice is a conflict, not an
// overwrite.
type KeywordRank struct {
	ID         uuid.UUID `json:"id"`
	ShopID     uuid.UUID `json:"shop_id"`
	Keyword    string    `json:"keyword"`
	TargetDate time.Time `json:"target_date"`
	Rank       *int      `json:"rank,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
