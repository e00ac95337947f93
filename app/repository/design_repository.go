package repository

import (
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"gorm.io/gorm"
)

// designRepository implements the DesignRepository interface
type designRepository struct {
	db *gorm.DB
}

// NewDesignRepository creates a new design repository instance
func NewDesignRepository(db *gorm.DB) DesignRepository {
	return &designRepository{db: db}
}

// Create creates a new design record
func (r *designRepository) Create(design *models.Design) error {
	return r.db.Create(design).Error
}

// GetByUUID retrieves a design by its public UUID
func (r *designRepository) GetByUUID(uuid string) (*models.Design, error) {
	var design models.Design
	err := r.db.Where("uuid = ?", uuid).First(&design).Error
	if err != nil {
		return nil, err
	}
	return &design, nil
}

// GetApprovedByUUID retrieves a design only if it is approved for download
func (r *designRepository) GetApprovedByUUID(uuid string) (*models.Design, error) {
	var design models.Design
	err := r.db.Where("uuid = ? AND status = ?", uuid, models.DesignStatusApproved).First(&design).Error
	if err != nil {
		return nil, err
	}
	return &design, nil
}

// ListApproved returns approved designs for catalog listings
func (r *designRepository) ListApproved(offset, limit int) ([]models.Design, error) {
	var designs []models.Design
	err := r.db.Where("status = ?", models.DesignStatusApproved).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&designs).Error
	return designs, err
}

// UpdateStatus moves a design through the moderation lifecycle
func (r *designRepository) UpdateStatus(uuid, status string) error {
	return r.db.Model(&models.Design{}).Where("uuid = ?", uuid).
		Update("status", status).Error
}
