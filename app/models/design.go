package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DesignStatusPending  = "pending"
	DesignStatusApproved = "approved"
	DesignStatusRejected = "rejected"
)

// Design tiers used by the pay-per-download pricing display.
const (
	DesignTierStandard  = "standard"
	DesignTierExclusive = "exclusive"
	DesignTierAI        = "ai"
)

// Design is a catalog record uploaded by a designer. Only approved designs
// are downloadable by buyers.
type Design struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	DesignerID uint           `gorm:"not null;index" json:"designer_id"`
	Designer   User           `gorm:"foreignKey:DesignerID" json:"-"`
	Title      string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Tier       string         `gorm:"type:varchar(20);not null;default:'standard'" json:"tier" validate:"oneof=standard exclusive ai"`
	Status     string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending approved rejected"`
	FilePath   string         `gorm:"type:varchar(500);not null" json:"-"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Design) Validate() error {
	v := validator.New()

	return v.Struct(d)
}

// IsDownloadable reports whether the design may be served to buyers.
func (d *Design) IsDownloadable() bool {
	return d.Status == DesignStatusApproved
}
