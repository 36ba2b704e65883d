package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/middleware"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/service"
)

type stubBatchRunner struct {
	start    func(ctx context.Context, userID uuid.UUID, req dto.BatchSyncRequest) (*entity.SyncBatch, error)
	progress func(ctx context.Context, batchID uuid.UUID) (*entity.SyncBatch, error)
	cancel   func(ctx context.Context, batchID uuid.UUID) error
}

func (s *stubBatchRunner) Start(ctx context.Context, userID uuid.UUID, req dto.BatchSyncRequest) (*entity.SyncBatch, error) {
	if s.start != nil {
		return s.start(ctx, userID, req)
	}
	return nil, errors.New("start not implemented")
}

func (s *stubBatchRunner) Progress(ctx context.Context, batchID uuid.UUID) (*entity.SyncBatch, error) {
	if s.progress != nil {
		return s.progress(ctx, batchID)
	}
	return nil, errors.New("progress not implemented")
}

func (s *stubBatchRunner) Cancel(ctx context.Context, batchID uuid.UUID) error {
	if s.cancel != nil {
		return s.cancel(ctx, batchID)
	}
	return errors.New("cancel not implemented")
}

func TestBatchHandler_Start(t *testing.T) {
	e := echo.New()

	t.Run("missing shop id", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{})
		req := httptest.NewRequest(http.MethodPost, "/sync-batches", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(middleware.ContextKeyUserID, uuid.NewString())

		handler := NewBatchHandler(&stubBatchRunner{})
		if err := handler.Start(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("accepted with batch id", func(t *testing.T) {
		batchID := uuid.New()
		runner := &stubBatchRunner{start: func(ctx context.Context, userID uuid.UUID, req dto.BatchSyncRequest) (*entity.SyncBatch, error) {
			if req.ShopID != "all" {
				t.Errorf("shop_id = %s, want all", req.ShopID)
			}
			return &entity.SyncBatch{ID: batchID, Status: entity.BatchStatusRunning, TotalShops: 3}, nil
		}}

		body, _ := json.Marshal(map[string]string{"shop_id": "all"})
		req := httptest.NewRequest(http.MethodPost, "/sync-batches", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(middleware.ContextKeyUserID, uuid.NewString())

		handler := NewBatchHandler(runner)
		if err := handler.Start(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}

		var envelope struct {
			Data map[string]string `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if envelope.Data["sync_batch_id"] != batchID.String() {
			t.Errorf("sync_batch_id = %s, want %s", envelope.Data["sync_batch_id"], batchID)
		}
	})
}

func TestBatchHandler_Status(t *testing.T) {
	e := echo.New()
	batchID := uuid.New()
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runner := &stubBatchRunner{progress: func(ctx context.Context, id uuid.UUID) (*entity.SyncBatch, error) {
		if id != batchID {
			return nil, repository.ErrBatchNotFound
		}
		return &entity.SyncBatch{
			ID:             batchID,
			Status:         entity.BatchStatusFinished,
			TotalShops:     4,
			CompletedShops: 4,
			TotalInserted:  10,
			TotalUpdated:   3,
			FinishedAt:     &finished,
			ShopResults: []entity.ShopSyncResult{
				{ShopName: "Cafe A", ReviewsChanged: 2, PostsSynced: 1},
				{ShopName: "Cafe B", Error: "token exchange failed"},
			},
		}, nil
	}}
	handler := NewBatchHandler(runner)

	t.Run("polling payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync-batches/"+batchID.String(), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("batchId")
		c.SetParamValues(batchID.String())

		if err := handler.Status(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var envelope struct {
			Data dto.BatchStatusResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		got := envelope.Data
		if got.Status != entity.BatchStatusFinished {
			t.Errorf("status = %s, want finished", got.Status)
		}
		if got.ProgressPercentage != 100 {
			t.Errorf("progress = %v, want 100", got.ProgressPercentage)
		}
		if len(got.ShopResults) != 2 {
			t.Fatalf("shop results = %d, want 2", len(got.ShopResults))
		}
		if got.ShopResults[1].Error == "" {
			t.Error("per-shop error missing from polling payload")
		}
		if got.FinishedAt == nil {
			t.Error("finished_at missing from terminal payload")
		}
	})

	t.Run("unknown batch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync-batches/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("batchId")
		c.SetParamValues(uuid.NewString())

		if err := handler.Status(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBatchHandler_Cancel(t *testing.T) {
	e := echo.New()
	batchID := uuid.New()

	tests := map[string]struct {
		cancelErr  error
		wantStatus int
	}{
		"running batch":      {cancelErr: nil, wantStatus: http.StatusAccepted},
		"terminal batch":     {cancelErr: service.ErrBatchNotCancellable, wantStatus: http.StatusConflict},
		"racing transition":  {cancelErr: repository.ErrBatchAlreadyFinished, wantStatus: http.StatusConflict},
		"unknown batch":      {cancelErr: repository.ErrBatchNotFound, wantStatus: http.StatusNotFound},
		"repository failure": {cancelErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			runner := &stubBatchRunner{cancel: func(ctx context.Context, id uuid.UUID) error {
				return tc.cancelErr
			}}

			req := httptest.NewRequest(http.MethodPost, "/api/sync-batches/"+batchID.String()+"/cancel", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("batchId")
			c.SetParamValues(batchID.String())

			handler := NewBatchHandler(runner)
			if err := handler.Cancel(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
