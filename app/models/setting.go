package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Setting represents a system setting row. Pricing overrides edited from the
// admin dashboard are stored here under "pricing." keys and folded into a
// catalog snapshot at read time; already-created orders and ledger entries
// are never touched by later edits.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates the setting row
func (s *Setting) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
