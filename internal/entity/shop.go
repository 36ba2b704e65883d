package entity

import (
	"time"

	"github.com/google/uuid"
)

// Shop is the tenant-like aggregate root: one managed Google Business
// Profile location together with its contract metadata and the credentials
// needed to call the GBP API on its behalf.
type Shop struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	GBPAccountID        string     `json:"gbp_account_id"`
	GBPLocationID       string     `json:"gbp_location_id"`
	RefreshToken        string     `json:"-"`
	OperationPersonID   *uuid.UUID `json:"operation_person_id,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	Website             *string    `json:"website,omitempty"`
	ContractPlan        *string    `json:"contract_plan,omitempty"`
	ContractStartedAt   *time.Time `json:"contract_started_at,omitempty"`
	MonthlyReviewTarget *int       `json:"monthly_review_target,omitempty"`
	MonthlyPhotoTarget  *int       `json:"monthly_photo_target,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
