package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// Rank sentinel errors.
var (
	ErrRankAlreadyRegistered = errors.New("rank fetch already registered or running")
	ErrRankNotFound          = errors.New("keyword rank not found")
)

// RanksRepository describes persistence operations for MEO keyword ranks.
// (shop_id, keyword, target_date) is a natural key: registering the same
// triple twice is a conflict the caller surfaces as 409, never an upsert.
type RanksRepository interface {
	Create(ctx context.Context, rank *entity.KeywordRank) error
	Delete(ctx context.Context, shopID, rankID uuid.UUID) error
	ListForShop(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]entity.KeywordRank, error)
}

// PGXRanksRepository implements RanksRepository using pgx.
type PGXRanksRepository struct {
	pool pgxPool
}

// NewPGXRanksRepository wires a pgx backed repository.
func NewPGXRanksRepository(pool *pgxpool.Pool) *PGXRanksRepository {
	return &PGXRanksRepository{pool: pool}
}

// Create registers a pending rank fetch.
func (r *PGXRanksRepository) Create(ctx context.Context, rank *entity.KeywordRank) error {
	if rank == nil {
		return fmt.Errorf("rank payload is nil")
	}
	if rank.Status == "" {
		rank.Status = entity.RankStatusPending
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO keyword_ranks (shop_id, keyword, target_date, rank, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, rank.ShopID, rank.Keyword, rank.TargetDate, rank.Rank, rank.Status)
	if err := row.Scan(&rank.ID, &rank.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %v", ErrRankAlreadyRegistered, pgErr)
		}
		return fmt.Errorf("insert keyword rank: %w", err)
	}
	return nil
}

// Delete removes a rank registration.
func (r *PGXRanksRepository) Delete(ctx context.Context, shopID, rankID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM keyword_ranks WHERE id = $1 AND shop_id = $2`, rankID, shopID)
	if err != nil {
		return fmt.Errorf("delete keyword rank: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRankNotFound
	}
	return nil
}

// ListForShop returns rank registrations for a shop, optionally windowed.
func (r *PGXRanksRepository) ListForShop(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]entity.KeywordRank, error) {
	query := `SELECT id, shop_id, keyword, target_date, rank, status, created_at FROM keyword_ranks WHERE shop_id = $1`
	args := []any{shopID}
	idx := 2
	if from != nil {
		query += fmt.Sprintf(" AND target_date >= $%d", idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += fmt.Sprintf(" AND target_date <= $%d", idx)
		args = append(args, *to)
		idx++
	}
	query += ` ORDER BY target_date DESC, keyword ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keyword ranks: %w", err)
	}
	defer rows.Close()

	var ranks []entity.KeywordRank
	for rows.Next() {
		var rank entity.KeywordRank
		err := rows.Scan(
			&rank.ID,
			&rank.ShopID,
			&rank.Keyword,
			&rank.TargetDate,
			&rank.Rank,
			&rank.Status,
			&rank.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan keyword rank: %w", err)
		}
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword ranks: %w", err)
	}
	return ranks, nil
}
