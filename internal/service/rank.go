package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
)

// RankService manages MEO keyword rank registrations for shops.
type RankService struct {
	shops repository.ShopsRepository
	ranks repository.RanksRepository
}

// NewRankService wires a RankService.
func NewRankService(shops repository.ShopsRepository, ranks repository.RanksRepository) *RankService {
	return &RankService{shops: shops, ranks: ranks}
}

// Register creates a pending rank fetch for (shop, keyword, target_date).
// A duplicate triple surfaces repository.ErrRankAlreadyRegistered.
func (s *RankService) Register(ctx context.Context, shopID uuid.UUID, req dto.RankFetchRequest) (*entity.KeywordRank, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, ValidationError{Message: "keyword is required"}
	}

	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		return nil, ValidationError{Message: "target_date must be YYYY-MM-DD"}
	}

	if _, err := s.shops.FindByID(ctx, shopID); err != nil {
		return nil, err
	}

	rank := &entity.KeywordRank{
		ShopID:     shopID,
		Keyword:    keyword,
		TargetDate: targetDate,
		Status:     entity.RankStatusPending,
	}
	if err := s.ranks.Create(ctx, rank); err != nil {
		return nil, err
	}
	return rank, nil
}

// Delete removes one rank registration of a shop.
func (s *RankService) Delete(ctx context.Context, shopID, rankID uuid.UUID) error {
	return s.ranks.Delete(ctx, shopID, rankID)
}

// List returns a shop's rank registrations, optionally windowed by
// target date.
func (s *RankService) List(ctx context.Context, shopID uuid.UUID, from, to *time.Time) ([]entity.KeywordRank, error) {
	if _, err := s.shops.FindByID(ctx, shopID); err != nil {
		return nil, err
	}
	return s.ranks.ListForShop(ctx, shopID, from, to)
}
