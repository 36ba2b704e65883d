package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// ErrSnapshotNotFound is returned when a shop has no snapshot for the user.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotsRepository describes persistence operations for sync snapshots.
// Snapshot reads are always scoped by (shop_id, user_id): one operator's
// snapshots are invisible to another operator viewing the same shop.
type SnapshotsRepository interface {
	Create(ctx context.Context, snapshot *entity.GbpSnapshot) error
	LatestForShop(ctx context.Context, shopID, userID uuid.UUID) (*entity.GbpSnapshot, error)
	ListForShop(ctx context.Context, shopID, userID uuid.UUID) ([]entity.GbpSnapshot, error)
}

// PGXSnapshotsRepository implements SnapshotsRepository using pgx.
type PGXSnapshotsRepository struct {
	pool pgxPool
}

// NewPGXSnapshotsRepository wires a pgx backed repository.
func NewPGXSnapshotsRepository(pool *pgxpool.Pool) *PGXSnapshotsRepository {
	return &PGXSnapshotsRepository{pool: pool}
}

// Create inserts a new snapshot row. Callers assign the ID up front so
// child rows can reference the snapshot before it is persisted; one is
// generated here when left empty. Snapshots are never updated after this
// point.
func (r *PGXSnapshotsRepository) Create(ctx context.Context, snapshot *entity.GbpSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot payload is nil")
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO gbp_snapshots (id, shop_id, user_id, synced_at, reviews_count, photos_count, posts_count)
        VALUES ($1, $2, $3, NOW(), $4, $5, $6)
        RETURNING synced_at
    `,
		snapshot.ID,
		snapshot.ShopID,
		snapshot.UserID,
		snapshot.ReviewsCount,
		snapshot.PhotosCount,
		snapshot.PostsCount,
	)
	if err := row.Scan(&snapshot.SyncedAt); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestForShop returns the most recent snapshot for (shop, user).
func (r *PGXSnapshotsRepository) LatestForShop(ctx context.Context, shopID, userID uuid.UUID) (*entity.GbpSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, shop_id, user_id, synced_at, reviews_count, photos_count, posts_count
        FROM gbp_snapshots
        WHERE shop_id = $1 AND user_id = $2
        ORDER BY synced_at DESC
        LIMIT 1
    `, shopID, userID)

	var snapshot entity.GbpSnapshot
	err := row.Scan(
		&snapshot.ID,
		&snapshot.ShopID,
		&snapshot.UserID,
		&snapshot.SyncedAt,
		&snapshot.ReviewsCount,
		&snapshot.PhotosCount,
		&snapshot.PostsCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListForShop returns all snapshots for (shop, user), newest first.
func (r *PGXSnapshotsRepository) ListForShop(ctx context.Context, shopID, userID uuid.UUID) ([]entity.GbpSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, shop_id, user_id, synced_at, reviews_count, photos_count, posts_count
        FROM gbp_snapshots
        WHERE shop_id = $1 AND user_id = $2
        ORDER BY synced_at DESC
    `, shopID, userID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []entity.GbpSnapshot
	for rows.Next() {
		var snapshot entity.GbpSnapshot
		err := rows.Scan(
			&snapshot.ID,
			&snapshot.ShopID,
			&snapshot.UserID,
			&snapshot.SyncedAt,
			&snapshot.ReviewsCount,
			&snapshot.PhotosCount,
			&snapshot.PostsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}
