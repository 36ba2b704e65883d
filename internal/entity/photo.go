package entity

import (
	"time"

	"github.com/google/uuid"
)

// Photo is one Google media item. Photo rows are snapshot-scoped: every
// sync inserts the full fetched set under the new snapshot id, so the same
// gbp_media_id appears once per snapshot. Reviews dedupe, photos do not.
type Photo struct {
	ID           uuid.UUID `json:"id"`
	ShopID       uuid.UUID `json:"shop_id"`
	SnapshotID   uuid.UUID `json:"snapshot_id"`
	GBPMediaID   string    `json:"gbp_media_id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	WidthPx      int       `json:"width_px"`
	HeightPx     int       `json:"height_px"`
	CreatedAt    time.Time `json:"created_at"`
}
