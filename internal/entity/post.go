package entity

import (
	"time"

	"github.com/google/uuid"
)

// LocalPost is one GBP local post, stored snapshot-scoped like photos.
type LocalPost struct {
	ID         uuid.UUID `json:"id"`
	ShopID     uuid.UUID `json:"shop_id"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
	GBPPostID  string    `json:"gbp_post_id"`
	Summary    string    `json:"summary"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}
