package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/service"
)

// BatchRunner drives batch syncs; satisfied by *service.BatchService.
type BatchRunner interface {
	Start(ctx context.Context, userID uuid.UUID, req dto.BatchSyncRequest) (*entity.SyncBatch, error)
	Progress(ctx context.Context, batchID uuid.UUID) (*entity.SyncBatch, error)
	Cancel(ctx context.Context, batchID uuid.UUID) error
}

// BatchHandler exposes batch sync start, polling and cancel endpoints.
type BatchHandler struct {
	batches BatchRunner
}

// NewBatchHandler constructs a BatchHandler.
func NewBatchHandler(batches BatchRunner) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// Start handles POST /sync-batches requests. The batch runs in the
// background; the caller polls Status with the returned id.
func (h *BatchHandler) Start(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "missing user identity")
	}

	var req dto.BatchSyncRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if req.ShopID == "" {
		return Error(c, http.StatusBadRequest, "shop_id is required (uuid or \"all\")")
	}

	batch, err := h.batches.Start(c.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusBadRequest, err.Error())
	}

	return Success(c, http.StatusAccepted, "sync batch started", map[string]string{
		"sync_batch_id": batch.ID.String(),
	})
}

// Status handles GET /api/sync-batches/:batchId requests. Terminal
// batches keep returning the same frozen payload.
func (h *BatchHandler) Status(c echo.Context) error {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid batch id")
	}

	batch, err := h.batches.Progress(c.Request().Context(), batchID)
	if err != nil {
		if errors.Is(err, repository.ErrBatchNotFound) {
			return Error(c, http.StatusNotFound, "sync batch not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to load sync batch")
	}

	return Success(c, http.StatusOK, "sync batch status", batchStatusResponse(batch))
}

// Cancel handles POST /api/sync-batches/:batchId/cancel requests.
func (h *BatchHandler) Cancel(c echo.Context) error {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid batch id")
	}

	if err := h.batches.Cancel(c.Request().Context(), batchID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBatchNotFound):
			return Error(c, http.StatusNotFound, "sync batch not found")
		case errors.Is(err, service.ErrBatchNotCancellable), errors.Is(err, repository.ErrBatchAlreadyFinished):
			return Error(c, http.StatusConflict, "sync batch already finished")
		default:
			return Error(c, http.StatusInternalServerError, "unable to cancel sync batch")
		}
	}
	return Success(c, http.StatusAccepted, "sync batch cancellation requested", nil)
}

func batchStatusResponse(batch *entity.SyncBatch) dto.BatchStatusResponse {
	resp := dto.BatchStatusResponse{
		Status:             batch.Status,
		TotalShops:         batch.TotalShops,
		CompletedShops:     batch.CompletedShops,
		TotalInserted:      batch.TotalInserted,
		TotalUpdated:       batch.TotalUpdated,
		ProgressPercentage: batch.ProgressPercentage(),
		ShopResults:        make([]dto.ShopResult, 0, len(batch.ShopResults)),
	}
	if batch.FinishedAt != nil {
		finished := batch.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	for _, result := range batch.ShopResults {
		resp.ShopResults = append(resp.ShopResults, dto.ShopResult{
			ShopName:       result.ShopName,
			ReviewsChanged: result.ReviewsChanged,
			PhotosInserted: result.PhotosInserted,
			PhotosUpdated:  result.PhotosUpdated,
			PostsSynced:    result.PostsSynced,
			Error:          result.Error,
		})
	}
	return resp
}
