package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/service"
)

// RankHandler exposes MEO keyword rank endpoints.
type RankHandler struct {
	ranks *service.RankService
}

// NewRankHandler constructs a RankHandler.
func NewRankHandler(ranks *service.RankService) *RankHandler {
	return &RankHandler{ranks: ranks}
}

// Register handles POST /shops/:id/ranks requests.
func (h *RankHandler) Register(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}

	var req dto.RankFetchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	rank, err := h.ranks.Register(c.Request().Context(), shopID, req)
	if err != nil {
		var validationErr service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return Error(c, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, repository.ErrShopNotFound):
			return Error(c, http.StatusNotFound, "shop not found")
		case errors.Is(err, repository.ErrRankAlreadyRegistered):
			return Error(c, http.StatusConflict, "already registered or running")
		default:
			return Error(c, http.StatusInternalServerError, "unable to register rank fetch")
		}
	}
	return Success(c, http.StatusCreated, "rank fetch registered", rank)
}

// List handles GET /shops/:id/ranks requests with optional from/to
// date window.
func (h *RankHandler) List(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}

	var from, to *time.Time
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = &parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = &parsed
	}

	ranks, err := h.ranks.List(c.Request().Context(), shopID, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return Error(c, http.StatusNotFound, "shop not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to list ranks")
	}
	return Success(c, http.StatusOK, "ranks retrieved", ranks)
}

// Delete handles DELETE /shops/:id/ranks/:rankId requests.
func (h *RankHandler) Delete(c echo.Context) error {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid shop id")
	}
	rankID, err := uuid.Parse(c.Param("rankId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid rank id")
	}

	if err := h.ranks.Delete(c.Request().Context(), shopID, rankID); err != nil {
		if errors.Is(err, repository.ErrRankNotFound) {
			return Error(c, http.StatusNotFound, "keyword rank not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to delete rank")
	}
	return Success(c, http.StatusOK, "rank deleted", nil)
}
