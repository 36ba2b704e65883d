package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
)

// ErrBatchNotCancellable is returned when Cancel targets a batch that has
// already reached a terminal status.
var ErrBatchNotCancellable = errors.New("sync batch is not running")

// ShopSyncer runs one shop sync. *SyncService satisfies it; batch tests
// substitute their own.
type ShopSyncer interface {
	SyncShop(ctx context.Context, shopID, userID uuid.UUID, opts SyncOptions) (*SyncOutcome, error)
}

// BatchService fans a sync request out over many shops with a bounded
// worker pool and records progress per completed shop, so the polling
// endpoint always reads consistent counters.
type BatchService struct {
	shops   repository.ShopsRepository
	batches repository.SyncBatchesRepository
	syncer  ShopSyncer
	workers int

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewBatchService wires a BatchService. workers bounds how many shops
// sync concurrently within one batch.
func NewBatchService(shops repository.ShopsRepository, batches repository.SyncBatchesRepository, syncer ShopSyncer, workers int) *BatchService {
	if workers < 1 {
		workers = 1
	}
	return &BatchService{
		shops:   shops,
		batches: batches,
		syncer:  syncer,
		workers: workers,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start resolves the target shop set, creates the batch row and launches
// the background run. It returns as soon as the batch id exists; callers
// poll Progress for the rest.
func (s *BatchService) Start(ctx context.Context, userID uuid.UUID, req dto.BatchSyncRequest) (*entity.SyncBatch, error) {
	shops, err := s.resolveShops(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(shops) == 0 {
		return nil, fmt.Errorf("no shops matched the batch request")
	}

	opts, err := parseSyncOptions(req.SinceDate)
	if err != nil {
		return nil, err
	}

	batch := &entity.SyncBatch{
		Status:     entity.BatchStatusRunning,
		TotalShops: len(shops),
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	// The run outlives the HTTP request that started it.
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[batch.ID] = cancel
	s.mu.Unlock()

	go s.run(runCtx, batch.ID, userID, shops, opts)

	log.Printf("sync batch started id=%s shops=%d workers=%d", batch.ID, len(shops), s.workers)
	return batch, nil
}

// Progress returns the current state of a batch. Terminal batches keep
// returning the same frozen row.
func (s *BatchService) Progress(ctx context.Context, batchID uuid.UUID) (*entity.SyncBatch, error) {
	return s.batches.Get(ctx, batchID)
}

// Cancel requests that a running batch stop launching further shops.
// Shops already in flight run to completion and their results are kept.
func (s *BatchService) Cancel(ctx context.Context, batchID uuid.UUID) error {
	batch, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Terminal() {
		return ErrBatchNotCancellable
	}

	s.mu.Lock()
	cancel, ok := s.cancels[batchID]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// No in-process run (e.g. the process restarted mid-batch): mark the
	// row directly so it does not stay running forever. A concurrent
	// terminal transition between the Get above and this write is not an
	// error worth surfacing differently from a plain terminal batch.
	if err := s.batches.MarkCancelled(ctx, batchID); err != nil {
		if errors.Is(err, repository.ErrBatchAlreadyFinished) {
			return ErrBatchNotCancellable
		}
		return err
	}
	return nil
}

func (s *BatchService) resolveShops(ctx context.Context, req dto.BatchSyncRequest) ([]entity.Shop, error) {
	if req.ShopID != "" && req.ShopID != "all" {
		shopID, err := uuid.Parse(req.ShopID)
		if err != nil {
			return nil, fmt.Errorf("invalid shop_id %q: %w", req.ShopID, err)
		}
		shop, err := s.shops.FindByID(ctx, shopID)
		if err != nil {
			return nil, err
		}
		return []entity.Shop{*shop}, nil
	}

	var operationPersonID *uuid.UUID
	if req.OperationPersonID != "" {
		id, err := uuid.Parse(req.OperationPersonID)
		if err != nil {
			return nil, fmt.Errorf("invalid operation_person_id %q: %w", req.OperationPersonID, err)
		}
		operationPersonID = &id
	}
	return s.shops.ListForSync(ctx, operationPersonID)
}

func (s *BatchService) run(ctx context.Context, batchID, userID uuid.UUID, shops []entity.Shop, opts SyncOptions) {
	defer func() {
		s.mu.Lock()
		delete(s.cancels, batchID)
		s.mu.Unlock()
	}()

	var cancelled bool

	// Workers run on their own context: cancellation stops launching new
	// shops but lets in-flight syncs finish and record their results.
	workCtx := context.Background()

	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, shop := range shops {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		g.Go(func() error {
			outcome, err := s.syncer.SyncShop(workCtx, shop.ID, userID, opts)
			if err != nil {
				outcome = &SyncOutcome{
					Result: entity.ShopSyncResult{ShopID: shop.ID, ShopName: shop.Name, Error: err.Error()},
				}
			}
			if err := s.batches.RecordShopResult(context.Background(), batchID, outcome.Result, outcome.Inserted, outcome.Updated); err != nil {
				return fmt.Errorf("record result for shop %s: %w", shop.ID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		cancelled = true
	}

	// State transitions use a fresh context; ctx may already be cancelled.
	finalCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	switch {
	case err != nil:
		log.Printf("sync batch failed id=%s error=%v", batchID, err)
		if markErr := s.batches.MarkFailed(finalCtx, batchID); markErr != nil {
			log.Printf("sync batch %s: mark failed: %v", batchID, markErr)
		}
	case cancelled:
		log.Printf("sync batch cancelled id=%s", batchID)
		if markErr := s.batches.MarkCancelled(finalCtx, batchID); markErr != nil {
			log.Printf("sync batch %s: mark cancelled: %v", batchID, markErr)
		}
	default:
		if markErr := s.batches.Finish(finalCtx, batchID); markErr != nil {
			log.Printf("sync batch %s: finish: %v", batchID, markErr)
		} else {
			log.Printf("sync batch finished id=%s shops=%d", batchID, len(shops))
		}
	}
}

// parseSyncOptions converts the optional since_date string (YYYY-MM-DD)
// into SyncOptions.
func parseSyncOptions(sinceDate string) (SyncOptions, error) {
	if sinceDate == "" {
		return SyncOptions{}, nil
	}
	t, err := time.Parse("2006-01-02", sinceDate)
	if err != nil {
		return SyncOptions{}, fmt.Errorf("invalid since_date %q: %w", sinceDate, err)
	}
	return SyncOptions{SinceDate: &t}, nil
}
