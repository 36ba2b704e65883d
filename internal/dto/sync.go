package dto

// SyncRequest is the body of POST /shops/:id/sync. From and To only shape
// the report window echoed back to the caller; SinceDate filters which
// fetched items are counted as new, never what the Google API returns.
type SyncRequest struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	SinceDate string `json:"since_date,omitempty"`
}

// BatchSyncRequest is the body of POST /sync-batches. ShopID is either a
// shop uuid or the literal "all".
type BatchSyncRequest struct {
	ShopID            string `json:"shop_id"`
	OperationPersonID string `json:"operation_person_id,omitempty"`
	SinceDate         string `json:"since_date,omitempty"`
}

// BatchStatusResponse is the polling payload for GET /api/sync-batches/:id.
type BatchStatusResponse struct {
	Status             string       `json:"status"`
	TotalShops         int          `json:"total_shops"`
	CompletedShops     int          `json:"completed_shops"`
	TotalInserted      int          `json:"total_inserted"`
	TotalUpdated       int          `json:"total_updated"`
	ProgressPercentage float64      `json:"progress_percentage"`
	FinishedAt         *string      `json:"finished_at,omitempty"`
	ShopResults        []ShopResult `json:"shop_results"`
}

// ShopResult mirrors entity.ShopSyncResult for API responses.
type ShopResult struct {
	ShopName       string `json:"shop_name"`
	ReviewsChanged int    `json:"reviews_changed"`
	PhotosInserted int    `json:"photos_inserted"`
	PhotosUpdated  int    `json:"photos_updated"`
	PostsSynced    int    `json:"posts_synced"`
	Error          string `json:"error,omitempty"`
}
