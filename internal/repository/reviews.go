package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// ReviewsRepository describes persistence operations for reviews. Rows are
// unique on (shop_id, gbp_review_id); reconciliation updates mutable
// fields in place instead of inserting duplicates.
type ReviewsRepository interface {
	MapByGBPReviewID(ctx context.Context, shopID uuid.UUID) (map[string]entity.Review, error)
	Insert(ctx context.Context, review *entity.Review) error
	UpdateMutable(ctx context.Context, id uuid.UUID, rating int, comment string, replyText *string, repliedAt *time.Time) error
	CountForShop(ctx context.Context, shopID uuid.UUID) (int, error)
}

// PGXReviewsRepository implements ReviewsRepository using pgx.
type PGXReviewsRepository struct {
	pool pgxPool
}

// NewPGXReviewsRepository wires a pgx backed repository.
func NewPGXReviewsRepository(pool *pgxpool.Pool) *PGXReviewsRepository {
	return &PGXReviewsRepository{pool: pool}
}

// MapByGBPReviewID loads all stored reviews for a shop keyed by their
// Google review id. The reconciliation engine uses this as its merge base.
func (r *PGXReviewsRepository) MapByGBPReviewID(ctx context.Context, shopID uuid.UUID) (map[string]entity.Review, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, shop_id, snapshot_id, gbp_review_id, author_name, rating, comment, reply_text, replied_at, created_at, updated_at
        FROM reviews
        WHERE shop_id = $1
    `, shopID)
	if err != nil {
		return nil, fmt.Errorf("load reviews for shop: %w", err)
	}
	defer rows.Close()

	reviews := make(map[string]entity.Review)
	for rows.Next() {
		var review entity.Review
		err := rows.Scan(
			&review.ID,
			&review.ShopID,
			&review.SnapshotID,
			&review.GBPReviewID,
			&review.AuthorName,
			&review.Rating,
			&review.Comment,
			&review.ReplyText,
			&review.RepliedAt,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews[review.GBPReviewID] = review
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// Insert stores a review first seen by the given snapshot.
func (r *PGXReviewsRepository) Insert(ctx context.Context, review *entity.Review) error {
	if review == nil {
		return fmt.Errorf("review payload is nil")
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO reviews (shop_id, snapshot_id, gbp_review_id, author_name, rating, comment, reply_text, replied_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, updated_at
    `,
		review.ShopID,
		review.SnapshotID,
		review.GBPReviewID,
		review.AuthorName,
		review.Rating,
		review.Comment,
		review.ReplyText,
		review.RepliedAt,
		review.CreatedAt,
	)
	if err := row.Scan(&review.ID, &review.UpdatedAt); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// UpdateMutable rewrites the fields Google may change after publication.
func (r *PGXReviewsRepository) UpdateMutable(ctx context.Context, id uuid.UUID, rating int, comment string, replyText *string, repliedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE reviews SET
            rating = $2,
            comment = $3,
            reply_text = $4,
            replied_at = $5,
            updated_at = NOW()
        WHERE id = $1
    `, id, rating, comment, replyText, repliedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update review: no row with id %s", id)
	}
	return nil
}

// CountForShop returns the number of distinct review rows for a shop.
func (r *PGXReviewsRepository) CountForShop(ctx context.Context, shopID uuid.UUID) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE shop_id = $1`, shopID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}
