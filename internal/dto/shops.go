package dto

import (
	"time"

	"github.com/google/uuid"
)

// ShopPayload carries create/update input for a shop.
type ShopPayload struct {
	Name                string     `json:"name"`
	GBPAccountID        string     `json:"gbp_account_id"`
	GBPLocationID       string     `json:"gbp_location_id"`
	RefreshToken        string     `json:"refresh_token"`
	OperationPersonID   *uuid.UUID `json:"operation_person_id,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	Website             *string    `json:"website,omitempty"`
	ContractPlan        *string    `json:"contract_plan,omitempty"`
	ContractStartedAt   *time.Time `json:"contract_started_at,omitempty"`
	MonthlyReviewTarget *int       `json:"monthly_review_target,omitempty"`
	MonthlyPhotoTarget  *int       `json:"monthly_photo_target,omitempty"`
}

// ShopListFilter narrows shop listings.
type ShopListFilter struct {
	Q                 string
	OperationPersonID *uuid.UUID
	Page              int
	PerPage           int
}
