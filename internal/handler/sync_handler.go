package handler

import (
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

// SyncHandler exposes the single-shop sync endpoint.
type SyncHandler struct {
	syncer service.ShopSyncer
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(syncer service.ShopSyncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// syncResponse is the body of a completed single-shop sync.
type syncResponse struct {
	Result   entity.ShopSyncResult `json:"result"`
	Snapshot *entity.GbpSnapshot   `json:"snapshot,omitempty"`
	From     string                `json:"from,omitempty"`
	To       string                `json:"to,omitempty"`
}

// Sync handles POST /shops/:id/sync requests. The sync runs inline; the
// response carries the per-shop result and the snapshot it produced.
func (h *SyncHandler) Sync(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "missing user identity")
	}

	var req dto.SyncRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	var opts service.SyncOptions
	if req.SinceDate != "" {
		since, err := time.Parse("2006-01-02", req.SinceDate)
		if err != nil {
			return Error(c, http.StatusBadRequest, "since_date must be YYYY-MM-DD")
		}
		opts.SinceDate = &since
	}

	outcome, err := h.syncer.SyncShop(c.Request().Context(), shopID, userID, opts)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to sync shop")
	}

	resp := syncResponse{
		Result:   outcome.Result,
		Snapshot: outcome.Snapshot,
		From:     req.From,
		To:       req.To,
	}
	if outcome.Result.Error != "" {
		return Success(c, http.StatusOK, "sync finished with errors", resp)
	}
	return Success(c, http.StatusOK, "sync finished", resp)
}
