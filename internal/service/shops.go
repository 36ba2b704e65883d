package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
)

// ShopsService exposes read/write operations for the managed shop
// catalogue.
type ShopsService struct {
	repo        repository.ShopsRepository
	phoneRegion string
}

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// UploadSummary reports how many rows were inserted or updated during import.
type UploadSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

// NewShopsService creates a new instance of ShopsService.
func NewShopsService(repo repository.ShopsRepository, phoneRegion string) *ShopsService {
	return &ShopsService{repo: repo, phoneRegion: phoneRegion}
}

// ListShops returns shops respecting pagination defaults.
func (s *ShopsService) ListShops(ctx context.Context, filter dto.ShopListFilter) ([]entity.Shop, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

// GetShop returns one shop by id.
func (s *ShopsService) GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateShop validates and persists a new shop.
func (s *ShopsService) CreateShop(ctx context.Context, payload dto.ShopPayload) (*entity.Shop, error) {
	if err := NormalizeShopPayload(&payload, s.phoneRegion); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.RefreshToken) == "" {
		return nil, ValidationError{Message: "refresh_token is required"}
	}

	shop := shopFromPayload(payload)
	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// UpdateShop validates and persists changes to an existing shop. An empty
// refresh_token keeps the stored credential.
func (s *ShopsService) UpdateShop(ctx context.Context, id uuid.UUID, payload dto.ShopPayload) (*entity.Shop, error) {
	if err := NormalizeShopPayload(&payload, s.phoneRegion); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	shop := shopFromPayload(payload)
	shop.ID = current.ID
	if strings.TrimSpace(payload.RefreshToken) == "" {
		shop.RefreshToken = current.RefreshToken
	}
	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// DeleteShop removes a shop and its synced data.
func (s *ShopsService) DeleteShop(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ImportShopsCSV ingests shop master data from a CSV reader. Rows are
// upserted on (name, gbp_location_id); an empty refresh_token column
// leaves any stored credential untouched.
func (s *ShopsService) ImportShopsCSV(ctx context.Context, r io.Reader) (UploadSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return UploadSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return UploadSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildShopHeaderIndex(header)
	if valErr != nil {
		return UploadSummary{}, valErr
	}

	var (
		records []repository.BulkUpsertShopInput
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return UploadSummary{}, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++

		name := strings.TrimSpace(row[indexMap["name"]])
		accountID := strings.TrimSpace(row[indexMap["gbp_account_id"]])
		locationID := strings.TrimSpace(row[indexMap["gbp_location_id"]])
		if name == "" || accountID == "" || locationID == "" {
			continue
		}

		phone, parseErr := parseOptionalPhone(row[indexMap["phone"]], s.phoneRegion)
		if parseErr != nil {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid phone value on row %d", rowNum)}
		}

		website, parseErr := parseOptionalWebsite(row[indexMap["website"]])
		if parseErr != nil {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid website value on row %d", rowNum)}
		}

		records = append(records, repository.BulkUpsertShopInput{
			Name:          name,
			GBPAccountID:  accountID,
			GBPLocationID: locationID,
			RefreshToken:  normalizeString(row[indexMap["refresh_token"]]),
			Phone:         phone,
			Website:       website,
			ContractPlan:  normalizeString(row[indexMap["contract_plan"]]),
		})
	}

	result, err := s.repo.BulkUpsertShops(ctx, records)
	if err != nil {
		return UploadSummary{}, err
	}

	return UploadSummary{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Total:    result.Total,
	}, nil
}

func shopFromPayload(payload dto.ShopPayload) *entity.Shop {
	return &entity.Shop{
		Name:                payload.Name,
		GBPAccountID:        payload.GBPAccountID,
		GBPLocationID:       payload.GBPLocationID,
		RefreshToken:        strings.TrimSpace(payload.RefreshToken),
		OperationPersonID:   payload.OperationPersonID,
		Phone:               payload.Phone,
		Website:             payload.Website,
		ContractPlan:        payload.ContractPlan,
		ContractStartedAt:   payload.ContractStartedAt,
		MonthlyReviewTarget: payload.MonthlyReviewTarget,
		MonthlyPhotoTarget:  payload.MonthlyPhotoTarget,
	}
}

var requiredShopCSVHeaders = []string{"name", "gbp_account_id", "gbp_location_id", "refresh_token", "phone", "website", "contract_plan"}

func buildShopHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredShopCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func parseOptionalPhone(value, region string) (*string, error) {
	normalized, err := normalizePhone(value, region)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return nil, nil
	}
	return &normalized, nil
}

func parseOptionalWebsite(value string) (*string, error) {
	normalized, err := normalizeWebsite(value)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return nil, nil
	}
	return &normalized, nil
}
