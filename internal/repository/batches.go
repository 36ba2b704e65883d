package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

var (
	// ErrBatchNotFound is returned when no batch matches the lookup criteria.
	ErrBatchNotFound = errors.New("sync batch not found")
	// ErrBatchAlreadyFinished is returned when a transition targets a batch
	// that already reached a terminal status.
	ErrBatchAlreadyFinished = errors.New("sync batch already finished")
)

// SyncBatchesRepository describes persistence operations for batch sync
// progress records. RecordShopResult is the only write that runs while
// shop workers are in flight and must be an atomic read-modify-write.
type SyncBatchesRepository interface {
	Create(ctx context.Context, batch *entity.SyncBatch) error
	Get(ctx context.Context, id uuid.UUID) (*entity.SyncBatch, error)
	RecordShopResult(ctx context.Context, batchID uuid.UUID, result entity.ShopSyncResult, inserted, updated int) error
	Finish(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}

// PGXSyncBatchesRepository implements SyncBatchesRepository using pgx.
type PGXSyncBatchesRepository struct {
	pool pgxPool
}

// NewPGXSyncBatchesRepository wires a pgx backed repository.
func NewPGXSyncBatchesRepository(pool *pgxpool.Pool) *PGXSyncBatchesRepository {
	return &PGXSyncBatchesRepository{pool: pool}
}

// Create inserts a new running batch row.
func (r *PGXSyncBatchesRepository) Create(ctx context.Context, batch *entity.SyncBatch) error {
	if batch == nil {
		return fmt.Errorf("batch payload is nil")
	}
	if batch.Status == "" {
		batch.Status = entity.BatchStatusRunning
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO sync_batches (status, total_shops, completed_shops, total_inserted, total_updated, shop_results)
        VALUES ($1, $2, 0, 0, 0, '[]'::jsonb)
        RETURNING id, created_at
    `, batch.Status, batch.TotalShops)
	if err := row.Scan(&batch.ID, &batch.CreatedAt); err != nil {
		return fmt.Errorf("insert sync batch: %w", err)
	}
	return nil
}

// Get returns the current state of a batch, terminal or not.
func (r *PGXSyncBatchesRepository) Get(ctx context.Context, id uuid.UUID) (*entity.SyncBatch, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, status, total_shops, completed_shops, total_inserted, total_updated, shop_results, created_at, finished_at
        FROM sync_batches
        WHERE id = $1
    `, id)

	var (
		batch   entity.SyncBatch
		results []byte
	)
	err := row.Scan(
		&batch.ID,
		&batch.Status,
		&batch.TotalShops,
		&batch.CompletedShops,
		&batch.TotalInserted,
		&batch.TotalUpdated,
		&results,
		&batch.CreatedAt,
		&batch.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("query sync batch: %w", err)
	}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &batch.ShopResults); err != nil {
			return nil, fmt.Errorf("unmarshal shop results: %w", err)
		}
	}
	return &batch, nil
}

// RecordShopResult applies one completed shop to the batch counters and
// result list in a single statement, so concurrent workers never lose an
// increment.
func (r *PGXSyncBatchesRepository) RecordShopResult(ctx context.Context, batchID uuid.UUID, result entity.ShopSyncResult, inserted, updated int) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal shop result: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
        UPDATE sync_batches SET
            completed_shops = completed_shops + 1,
            total_inserted = total_inserted + $2,
            total_updated = total_updated + $3,
            shop_results = shop_results || $4::jsonb
        WHERE id = $1
    `, batchID, inserted, updated, string(payload))
	if err != nil {
		return fmt.Errorf("record shop result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// Finish marks a running batch finished.
func (r *PGXSyncBatchesRepository) Finish(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, entity.BatchStatusFinished)
}

// MarkFailed marks a running batch failed after an orchestration error.
func (r *PGXSyncBatchesRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, entity.BatchStatusFailed)
}

// MarkCancelled marks a running batch cancelled.
func (r *PGXSyncBatchesRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, entity.BatchStatusCancelled)
}

// transition only moves batches out of running; terminal rows stay frozen
// so the polling endpoint keeps returning the same state forever. A batch
// that exists but is already terminal reports ErrBatchAlreadyFinished so
// callers can tell it apart from a missing row.
func (r *PGXSyncBatchesRepository) transition(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE sync_batches SET status = $2, finished_at = NOW()
        WHERE id = $1 AND status = $3
    `, id, status, entity.BatchStatusRunning)
	if err != nil {
		return fmt.Errorf("transition sync batch to %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		row := r.pool.QueryRow(ctx, `SELECT status FROM sync_batches WHERE id = $1`, id)
		var current string
		if err := row.Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBatchNotFound
			}
			return fmt.Errorf("check sync batch status: %w", err)
		}
		return ErrBatchAlreadyFinished
	}
	return nil
}
