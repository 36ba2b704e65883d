package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// PostsRepository describes persistence operations for local posts, stored
// snapshot-scoped like photos.
type PostsRepository interface {
	InsertBatch(ctx context.Context, posts []entity.LocalPost) error
}

// PGXPostsRepository implements PostsRepository using pgx.
type PGXPostsRepository struct {
	pool pgxPool
}

// NewPGXPostsRepository wires a pgx backed repository.
func NewPGXPostsRepository(pool *pgxpool.Pool) *PGXPostsRepository {
	return &PGXPostsRepository{pool: pool}
}

// InsertBatch stores all local posts of one sync in a single transaction.
func (r *PGXPostsRepository) InsertBatch(ctx context.Context, posts []entity.LocalPost) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("start post insert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, post := range posts {
		_, err := tx.Exec(ctx, `
            INSERT INTO local_posts (shop_id, snapshot_id, gbp_post_id, summary, state, created_at)
            VALUES ($1,$2,$3,$4,$5,$6)
        `,
			post.ShopID,
			post.SnapshotID,
			post.GBPPostID,
			post.Summary,
			post.State,
			post.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert local post %q: %w", post.GBPPostID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit post insert tx: %w", err)
	}
	return nil
}
