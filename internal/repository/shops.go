package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

// ErrShopNotFound is returned when no shop matches the lookup criteria.
var ErrShopNotFound = errors.New("shop not found")

// ShopsRepository describes persistence operations for shops.
type ShopsRepository interface {
	Create(ctx context.Context, shop *entity.Shop) error
	Update(ctx context.Context, shop *entity.Shop) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
	List(ctx context.Context, filter dto.ShopListFilter) ([]entity.Shop, error)
	ListForSync(ctx context.Context, operationPersonID *uuid.UUID) ([]entity.Shop, error)
	BulkUpsertShops(ctx context.Context, records []BulkUpsertShopInput) (BulkUpsertResult, error)
}

// BulkUpsertShopInput represents the minimal fields required for CSV ingestion.
type BulkUpsertShopInput struct {
	Name          string
	GBPAccountID  string
	GBPLocationID string
	RefreshToken  *string
	Phone         *string
	Website       *string
	ContractPlan  *string
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXShopsRepository implements ShopsRepository using pgx.
type PGXShopsRepository struct {
	pool pgxPool
}

// NewPGXShopsRepository wires a pgx backed repository.
func NewPGXShopsRepository(pool *pgxpool.Pool) *PGXShopsRepository {
	return &PGXShopsRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

const shopColumns = `
        id,
        name,
        gbp_account_id,
        gbp_location_id,
        refresh_token,
        operation_person_id,
        phone,
        website,
        contract_plan,
        contract_started_at,
        monthly_review_target,
        monthly_photo_target,
        created_at,
        updated_at
    `

// Create inserts a new shop row.
func (r *PGXShopsRepository) Create(ctx context.Context, shop *entity.Shop) error {
	if shop == nil {
		return fmt.Errorf("shop payload is nil")
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO shops (
            name, gbp_account_id, gbp_location_id, refresh_token,
            operation_person_id, phone, website, contract_plan,
            contract_started_at, monthly_review_target, monthly_photo_target
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at
    `,
		shop.Name,
		shop.GBPAccountID,
		shop.GBPLocationID,
		shop.RefreshToken,
		shop.OperationPersonID,
		shop.Phone,
		shop.Website,
		shop.ContractPlan,
		shop.ContractStartedAt,
		shop.MonthlyReviewTarget,
		shop.MonthlyPhotoTarget,
	)
	if err := row.Scan(&shop.ID, &shop.CreatedAt, &shop.UpdatedAt); err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	return nil
}

// Update rewrites the mutable attributes of a shop.
func (r *PGXShopsRepository) Update(ctx context.Context, shop *entity.Shop) error {
	if shop == nil {
		return fmt.Errorf("shop payload is nil")
	}

	tag, err := r.pool.Exec(ctx, `
        UPDATE shops SET
            name = $2,
            gbp_account_id = $3,
            gbp_location_id = $4,
            refresh_token = $5,
            operation_person_id = $6,
            phone = $7,
            website = $8,
            contract_plan = $9,
            contract_started_at = $10,
            monthly_review_target = $11,
            monthly_photo_target = $12,
            updated_at = NOW()
        WHERE id = $1
    `,
		shop.ID,
		shop.Name,
		shop.GBPAccountID,
		shop.GBPLocationID,
		shop.RefreshToken,
		shop.OperationPersonID,
		shop.Phone,
		shop.Website,
		shop.ContractPlan,
		shop.ContractStartedAt,
		shop.MonthlyReviewTarget,
		shop.MonthlyPhotoTarget,
	)
	if err != nil {
		return fmt.Errorf("update shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShopNotFound
	}
	return nil
}

// Delete removes a shop row.
func (r *PGXShopsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShopNotFound
	}
	return nil
}

// FindByID retrieves a shop by identifier.
func (r *PGXShopsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id)

	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("query shop by id: %w", err)
	}
	return shop, nil
}

// List retrieves shops matching the provided filter, newest first.
func (r *PGXShopsRepository) List(ctx context.Context, filter dto.ShopListFilter) ([]entity.Shop, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + shopColumns + ` FROM shops`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", idx))
		args = append(args, fmt.Sprintf("%%%s%%", filter.Q))
		idx++
	}
	if filter.OperationPersonID != nil {
		clauses = append(clauses, fmt.Sprintf("operation_person_id = $%d", idx))
		args = append(args, *filter.OperationPersonID)
		idx++
	}
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	return scanShops(rows)
}

// ListForSync returns the shop set targeted by a batch sync, optionally
// narrowed to one operation person.
func (r *PGXShopsRepository) ListForSync(ctx context.Context, operationPersonID *uuid.UUID) ([]entity.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops`
	var args []any
	if operationPersonID != nil {
		query += ` WHERE operation_person_id = $1`
		args = append(args, *operationPersonID)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shops for sync: %w", err)
	}
	defer rows.Close()

	return scanShops(rows)
}

const bulkUpsertShopSQL = `
        INSERT INTO shops (name, gbp_account_id, gbp_location_id, refresh_token, phone, website, contract_plan, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        ON CONFLICT (name, gbp_location_id) DO UPDATE SET
            gbp_account_id = EXCLUDED.gbp_account_id,
            refresh_token = COALESCE(EXCLUDED.refresh_token, shops.refresh_token),
            phone = EXCLUDED.phone,
            website = EXCLUDED.website,
            contract_plan = EXCLUDED.contract_plan,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsertShops persists a CSV batch of shops with idempotent semantics.
func (r *PGXShopsRepository) BulkUpsertShops(ctx context.Context, records []BulkUpsertShopInput) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		rows, err := tx.Query(ctx, bulkUpsertShopSQL,
			record.Name,
			record.GBPAccountID,
			record.GBPLocationID,
			record.RefreshToken,
			record.Phone,
			record.Website,
			record.ContractPlan,
		)
		if err != nil {
			return result, fmt.Errorf("bulk upsert shop %q: %w", record.Name, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan bulk upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("bulk upsert shop %q: %w", record.Name, err)
			}
			return result, fmt.Errorf("bulk upsert shop %q: no result returned", record.Name)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

func scanShop(row pgx.Row) (*entity.Shop, error) {
	var shop entity.Shop
	err := row.Scan(
		&shop.ID,
		&shop.Name,
		&shop.GBPAccountID,
		&shop.GBPLocationID,
		&shop.RefreshToken,
		&shop.OperationPersonID,
		&shop.Phone,
		&shop.Website,
		&shop.ContractPlan,
		&shop.ContractStartedAt,
		&shop.MonthlyReviewTarget,
		&shop.MonthlyPhotoTarget,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func scanShops(rows pgx.Rows) ([]entity.Shop, error) {
	var shops []entity.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, *shop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shops: %w", err)
	}
	return shops, nil
}
