package entity

import (
	"time"

	"github.com/google/uuid"
)

// Batch status values. A batch only ever moves from running to one of the
// terminal states; the polling endpoint keeps serving the terminal row
// unchanged afterwards.
const (
	BatchStatusRunning   = "running"
	BatchStatusFinished  = "finished"
	BatchStatusFailed    = "failed"
	BatchStatusCancelled = "cancelled"
)

// SyncBatch tracks one multi-shop sync run. Counter updates happen through
// a single read-modify-write SQL statement per completed shop so that
// concurrent shop workers never lose an increment.
type SyncBatch struct {
	ID             uuid.UUID        `json:"id"`
	Status         string           `json:"status"`
	TotalShops     int              `json:"total_shops"`
	CompletedShops int              `json:"completed_shops"`
	TotalInserted  int              `json:"total_inserted"`
	TotalUpdated   int              `json:"total_updated"`
	ShopResults    []ShopSyncResult `json:"shop_results"`
	CreatedAt      time.Time        `json:"created_at"`
	FinishedAt     *time.Time       `json:"finished_at,omitempty"`
}

// Terminal reports whether the batch has reached a final status.
func (b SyncBatch) Terminal() bool {
	return b.Status != BatchStatusRunning
}

// ProgressPercentage returns completion as 0-100.
func (b SyncBatch) ProgressPercentage() float64 {
	if b.TotalShops == 0 {
		return 100
	}
	return float64(b.CompletedShops) / float64(b.TotalShops) * 100
}

// ShopSyncResult is the per-shop outcome of one sync, either as the direct
// response of a single-shop sync or as one entry in a batch result list.
// A non-empty Error means the shop was skipped for counting purposes.
type ShopSyncResult struct {
	ShopID         uuid.UUID `json:"shop_id"`
	ShopName       string    `json:"shop_name"`
	ReviewsChanged int       `json:"reviews_changed"`
	PhotosInserted int       `json:"photos_inserted"`
	PhotosUpdated  int       `json:"photos_updated"`
	PostsSynced    int       `json:"posts_synced"`
	Error          string    `json:"error,omitempty"`
}
