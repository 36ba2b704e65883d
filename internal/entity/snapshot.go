package entity

import (
	"time"

	"github.com/google/uuid"
)

// GbpSnapshot is the immutable version marker written once per successful
// sync. Reviews, photos and posts reference it by snapshot id; "latest"
// is always resolved per (shop_id, user_id), never globally per shop.
type GbpSnapshot struct {
	ID           uuid.UUID `json:"id"`
	ShopID       uuid.UUID `json:"shop_id"`
	UserID       uuid.UUID `json:"user_id"`
	SyncedAt     time.Time `json:"synced_at"`
	ReviewsCount int       `json:"reviews_count"`
	PhotosCount  int       `json:"photos_count"`
	PostsCount   int       `json:"posts_count"`
}
