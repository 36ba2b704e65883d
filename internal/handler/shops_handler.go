package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/middleware"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/service"
)

// ShopsHandler exposes shop CRUD and CSV import endpoints.
type ShopsHandler struct {
	shops     *service.ShopsService
	snapshots repository.SnapshotsRepository
	reviews   repository.ReviewsRepository
}

// NewShopsHandler constructs a ShopsHandler.
func NewShopsHandler(shops *service.ShopsService, snapshots repository.SnapshotsRepository, reviews repository.ReviewsRepository) *ShopsHandler {
	return &ShopsHandler{shops: shops, snapshots: snapshots, reviews: reviews}
}

// List handles GET /shops requests.
func (h *ShopsHandler) List(c echo.Context) error {
	filter := dto.ShopListFilter{
		Q: strings.TrimSpace(c.QueryParam("q")),
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(c.QueryParam("per_page")); err == nil {
		filter.PerPage = perPage
	}
	if raw := c.QueryParam("operation_person_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid operation_person_id")
		}
		filter.OperationPersonID = &id
	}

	shops, err := h.shops.ListShops(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to list shops")
	}
	return Success(c, http.StatusOK, "shops retrieved", shops)
}

// shopDetail bundles a shop with its latest sync state for the caller.
type shopDetail struct {
	Shop          *entity.Shop        `json:"shop"`
	LastSnapshot  *entity.GbpSnapshot `json:"last_snapshot,omitempty"`
	StoredReviews int                 `json:"stored_reviews"`
}

// Get handles GET /shops/:id requests. The latest snapshot is scoped to
// the requesting user.
func (h *ShopsHandler) Get(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "missing user identity")
	}

	ctx := c.Request().Context()
	shop, err := h.shops.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to load shop")
	}

	detail := shopDetail{Shop: shop}
	if snapshot, err := h.snapshots.LatestForShop(ctx, shopID, userID); err == nil {
		detail.LastSnapshot = snapshot
	} else if !errors.Is(err, repository.ErrSnapshotNotFound) {
		return Error(c, http.StatusInternalServerError, "unable to load snapshot")
	}
	if count, err := h.reviews.CountForShop(ctx, shopID); err == nil {
		detail.StoredReviews = count
	}

	return Success(c, http.StatusOK, "shop retrieved", detail)
}

// Snapshots handles GET /shops/:id/snapshots requests, returning the
// shop's sync history for the requesting user, newest first.
func (h *ShopsHandler) Snapshots(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "missing user identity")
	}

	ctx := c.Request().Context()
	if _, err := h.shops.GetShop(ctx, shopID); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to load shop")
	}

	snapshots, err := h.snapshots.ListForShop(ctx, shopID, userID)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to list snapshots")
	}
	if snapshots == nil {
		snapshots = []entity.GbpSnapshot{}
	}
	return Success(c, http.StatusOK, "snapshots retrieved", snapshots)
}

// Create handles POST /shops requests.
func (h *ShopsHandler) Create(c echo.Context) error {
	var payload dto.ShopPayload
	if err := c.Bind(&payload); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	shop, err := h.shops.CreateShop(c.Request().Context(), payload)
	if err != nil {
		var validationErr service.ValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Message)
		}
		return Error(c, http.StatusInternalServerError, "unable to create shop")
	}
	return Success(c, http.StatusCreated, "shop created", shop)
}

// Update handles PATCH /shops/:id requests.
func (h *ShopsHandler) Update(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}

	var payload dto.ShopPayload
	if err := c.Bind(&payload); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	shop, err := h.shops.UpdateShop(c.Request().Context(), shopID, payload)
	if err != nil {
		var validationErr service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return Error(c, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, repository.ErrShopNotFound):
			return Error(c, http.StatusNotFound, "shop not found")
		default:
			return Error(c, http.StatusInternalServerError, "unable to update shop")
		}
	}
	return Success(c, http.StatusOK, "shop updated", shop)
}

// Delete handles DELETE /shops/:id requests.
func (h *ShopsHandler) Delete(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}

	if err := h.shops.DeleteShop(c.Request().Context(), shopID); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to delete shop")
	}
	return Success(c, http.StatusOK, "shop deleted", nil)
}

// ImportCSV handles POST /admin/shops/import-csv requests.
func (h *ShopsHandler) ImportCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "csv file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open uploaded file")
	}
	defer file.Close()

	summary, err := h.shops.ImportShopsCSV(c.Request().Context(), file)
	if err != nil {
		var csvErr service.CSVValidationError
		if errors.As(err, &csvErr) {
			return Error(c, http.StatusBadRequest, csvErr.Message)
		}
		return Error(c, http.StatusInternalServerError, "unable to import shops")
	}
	return Success(c, http.StatusOK, "shops imported", summary)
}

// currentUserID extracts the authenticated user's id set by the JWT
// middleware.
func currentUserID(c echo.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(middleware.ContextKeyUserID).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
