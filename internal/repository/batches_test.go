package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
)

func TestPGXSyncBatchesRepository_RecordShopResult(t *testing.T) {
	batchID := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	var gotArgs []any
	repo := &PGXSyncBatchesRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			gotArgs = args
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}}

	result := entity.ShopSyncResult{ShopName: "Cafe Aoyama", ReviewsChanged: 3}
	if err := repo.RecordShopResult(context.Background(), batchID, result, 2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) != 4 {
		t.Fatalf("expected 4 args, got %d", len(gotArgs))
	}
	if gotArgs[0] != batchID || gotArgs[1] != 2 || gotArgs[2] != 1 {
		t.Fatalf("unexpected args: %+v", gotArgs)
	}
}

func TestPGXSyncBatchesRepository_RecordShopResult_UnknownBatch(t *testing.T) {
	repo := &PGXSyncBatchesRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}}

	err := repo.RecordShopResult(context.Background(), uuid.New(), entity.ShopSyncResult{}, 0, 0)
	if !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestPGXSyncBatchesRepository_Get(t *testing.T) {
	repo := &PGXSyncBatchesRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				created := time.Now()
				finished := created.Add(time.Minute)
				*dest[0].(*uuid.UUID) = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
				*dest[1].(*string) = entity.BatchStatusFinished
				*dest[2].(*int) = 2
				*dest[3].(*int) = 2
				*dest[4].(*int) = 5
				*dest[5].(*int) = 1
				*dest[6].(*[]byte) = []byte(`[{"shop_id":"bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb","shop_name":"Cafe Aoyama","reviews_changed":3,"photos_inserted":2,"photos_updated":0,"posts_synced":1}]`)
				*dest[7].(*time.Time) = created
				*dest[8].(**time.Time) = &finished
				return nil
			}}
		},
	}}

	batch, err := repo.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Status != entity.BatchStatusFinished || batch.CompletedShops != 2 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if len(batch.ShopResults) != 1 || batch.ShopResults[0].ShopName != "Cafe Aoyama" {
		t.Fatalf("unexpected shop results: %+v", batch.ShopResults)
	}

	repo.pool = &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	if _, err := repo.Get(context.Background(), uuid.New()); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestPGXSyncBatchesRepository_Finish_AlreadyTerminal(t *testing.T) {
	repo := &PGXSyncBatchesRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			// status guard matched no running row
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = entity.BatchStatusCancelled
				return nil
			}}
		},
	}}

	if err := repo.Finish(context.Background(), uuid.New()); !errors.Is(err, ErrBatchAlreadyFinished) {
		t.Fatalf("expected ErrBatchAlreadyFinished for terminal batch, got %v", err)
	}
}

func TestPGXSyncBatchesRepository_MarkCancelled_UnknownBatch(t *testing.T) {
	repo := &PGXSyncBatchesRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}}

	if err := repo.MarkCancelled(context.Background(), uuid.New()); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}
