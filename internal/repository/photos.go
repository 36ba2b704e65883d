package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// PhotosRepository describes persistence operations for photos. Photos are
// snapshot-scoped: every sync inserts the full fetched set under the new
// snapshot id, so no deduplication against prior snapshots happens here.
type PhotosRepository interface {
	InsertBatch(ctx context.Context, photos []entity.Photo) error
}

// PGXPhotosRepository implements PhotosRepository using pgx.
type PGXPhotosRepository struct {
	pool pgxPool
}

// NewPGXPhotosRepository wires a pgx backed repository.
func NewPGXPhotosRepository(pool *pgxpool.Pool) *PGXPhotosRepository {
	return &PGXPhotosRepository{pool: pool}
}

// InsertBatch stores all photos of one sync in a single transaction.
func (r *PGXPhotosRepository) InsertBatch(ctx context.Context, photos []entity.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("start photo insert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, photo := range photos {
		_, err := tx.Exec(ctx, `
            INSERT INTO photos (shop_id, snapshot_id, gbp_media_id, url, thumbnail_url, width_px, height_px, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        `,
			photo.ShopID,
			photo.SnapshotID,
			photo.GBPMediaID,
			photo.URL,
			photo.ThumbnailURL,
			photo.WidthPx,
			photo.HeightPx,
			photo.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert photo %q: %w", photo.GBPMediaID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit photo insert tx: %w", err)
	}
	return nil
}
