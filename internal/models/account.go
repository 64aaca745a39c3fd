package models

import (
	"time"
)

// AccountField names a column an account can be looked up by.
type AccountField string

const (
	AccountFieldID            AccountField = "id"
	AccountFieldShortID       AccountField = "short_id"
	AccountFieldContactNumber AccountField = "contact_number"
)

// Account holds a user's prepaid wallet balance.
type Account struct {
	ID            string    `json:"id" db:"id"`
	ShortID       string    `json:"shortId" db:"short_id"`
	ContactNumber string    `json:"contactNumber" db:"contact_number"`
	Balance       int64     `json:"balance" db:"balance"` // whole currency units
	Version       int64     `json:"version" db:"version"` // bumped on every balance write
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
