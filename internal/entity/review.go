package entity

import (
	"time"

	"github.com/google/uuid"
)

// Review is one Google review. Rows are unique on (shop_id, gbp_review_id):
// repeated syncs update the mutable fields in place instead of inserting a
// second row, so SnapshotID records the sync that first saw the review.
type Review struct {
	ID          uuid.UUID  `json:"id"`
	ShopID      uuid.UUID  `json:"shop_id"`
	SnapshotID  uuid.UUID  `json:"snapshot_id"`
	GBPReviewID string     `json:"gbp_review_id"`
	AuthorName  string     `json:"author_name"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment"`
	ReplyText   *string    `json:"reply_text,omitempty"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasSameContent reports whether the stored row already carries the same
// mutable fields as a freshly fetched copy of the review.
func (r Review) HasSameContent(rating int, comment string, replyText *string, repliedAt *time.Time) bool {
	if r.Rating != rating || r.Comment != comment {
		return false
	}
	if !equalStringPtr(r.ReplyText, replyText) {
		return false
	}
	return equalTimePtr(r.RepliedAt, repliedAt)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
