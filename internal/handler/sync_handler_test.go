package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/middleware"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/service"
)

type stubSyncer struct {
	syncShop func(ctx context.Context, shopID, userID uuid.UUID, opts service.SyncOptions) (*service.SyncOutcome, error)
}

func (s *stubSyncer) SyncShop(ctx context.Context, shopID, userID uuid.UUID, opts service.SyncOptions) (*service.SyncOutcome, error) {
	return s.syncShop(ctx, shopID, userID, opts)
}

func newSyncContext(e *echo.Echo, shopID string, body []byte) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/shops/"+shopID+"/sync", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/shops/:id/sync")
	c.SetParamNames("id")
	c.SetParamValues(shopID)
	c.Set(middleware.ContextKeyUserID, uuid.NewString())
	return c, rec
}

func TestSyncHandler_Sync(t *testing.T) {
	e := echo.New()
	shopID := uuid.New()

	t.Run("invalid shop id", func(t *testing.T) {
		c, rec := newSyncContext(e, "not-a-uuid", nil)
		handler := NewSyncHandler(&stubSyncer{})
		if err := handler.Sync(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid since date", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"since_date": "01/03/2026"})
		c, rec := newSyncContext(e, shopID.String(), body)
		handler := NewSyncHandler(&stubSyncer{})
		if err := handler.Sync(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown shop", func(t *testing.T) {
		syncer := &stubSyncer{syncShop: func(ctx context.Context, shopID, userID uuid.UUID, opts service.SyncOptions) (*service.SyncOutcome, error) {
			return nil, repository.ErrShopNotFound
		}}
		c, rec := newSyncContext(e, shopID.String(), nil)
		handler := NewSyncHandler(syncer)
		if err := handler.Sync(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("successful sync threads user and since date", func(t *testing.T) {
		var gotUser uuid.UUID
		var gotOpts service.SyncOptions
		syncer := &stubSyncer{syncShop: func(ctx context.Context, gotShop, userID uuid.UUID, opts service.SyncOptions) (*service.SyncOutcome, error) {
			gotUser = userID
			gotOpts = opts
			return &service.SyncOutcome{
				Result:   entity.ShopSyncResult{ShopID: gotShop, ShopName: "Cafe", ReviewsChanged: 2, PostsSynced: 3},
				Snapshot: &entity.GbpSnapshot{ShopID: gotShop, ReviewsCount: 2, PostsCount: 3},
			}, nil
		}}

		body, _ := json.Marshal(map[string]string{"since_date": "2026-03-01", "from": "2026-03-01", "to": "2026-03-31"})
		c, rec := newSyncContext(e, shopID.String(), body)
		handler := NewSyncHandler(syncer)
		if err := handler.Sync(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUser == uuid.Nil {
			t.Error("user id not threaded through to the sync")
		}
		if gotOpts.SinceDate == nil || gotOpts.SinceDate.Format("2006-01-02") != "2026-03-01" {
			t.Errorf("since date = %v, want 2026-03-01", gotOpts.SinceDate)
		}

		var envelope APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if envelope.Status != "success" {
			t.Errorf("envelope status = %s", envelope.Status)
		}
	})

	t.Run("missing user identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/shops/"+shopID.String()+"/sync", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(shopID.String())

		handler := NewSyncHandler(&stubSyncer{})
		if err := handler.Sync(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
