package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/models"
)

// CounsellorRepository provides access to counsellor records.
type CounsellorRepository interface {
	GetByID(ctx context.Context, id uint) (models.Counsellor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Counsellor, error)
}

type counsellorRepository struct {
	db *gorm.DB
}

// NewCounsellorRepository constructs a counsellor repository.
func NewCounsellorRepository(db *gorm.DB) CounsellorRepository {
	return &counsellorRepository{db: db}
}

func (r *counsellorRepository) GetByID(ctx context.Context, id uint) (models.Counsellor, error) {
	var counsellor models.Counsellor
	if err := r.db.WithContext(ctx).First(&counsellor, id).Error; err != nil {
		return models.Counsellor{}, err
	}
	return counsellor, nil
}

func (r *counsellorRepository) List(ctx context.Context, activeOnly bool) ([]models.Counsellor, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var counsellors []models.Counsellor
	if err := query.Find(&counsellors).Error; err != nil {
		return nil, err
	}

	return counsellors, nil
}
