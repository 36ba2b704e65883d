package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a back-office account. Role is either "admin" or "operator";
// operators only see sync data created under their own user id.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
