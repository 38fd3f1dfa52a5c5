package repository

import (
	"context"
	"errors"

	"idportal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CitizenRepository reads and backfills the citizen projection.
type CitizenRepository interface {
	GetByIDNumber(ctx context.Context, idNumber string) (*models.Citizen, error)
	// Backfill inserts citizen unless a row with the same ID number exists.
	Backfill(ctx context.Context, citizen *models.Citizen) error
}

type citizenRepository struct {
	db *gorm.DB
}

// NewCitizenRepository returns a new CitizenRepository implementation.
func NewCitizenRepository(db *gorm.DB) CitizenRepository {
	return &citizenRepository{db: db}
}

// GetByIDNumber returns (nil, nil) for unknown ID numbers.
func (r *citizenRepository) GetByIDNumber(ctx context.Context, idNumber string) (*models.Citizen, error) {
	var citizen models.Citizen
	if err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&citizen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &citizen, nil
}

func (r *citizenRepository) Backfill(ctx context.Context, citizen *models.Citizen) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id_number"}}, DoNothing: true}).
		Create(citizen).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
