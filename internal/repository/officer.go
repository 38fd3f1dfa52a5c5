package repository

import (
	"context"
	"errors"
	"time"

	"idportal/internal/models"

	"gorm.io/gorm"
)

// OfficerRepository defines persistence operations for officers.
type OfficerRepository interface {
	Create(ctx context.Context, officer *models.Officer) error
	ExistsByIDNumberOrEmail(ctx context.Context, idNumber, email string) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Officer, error)
	GetByEmail(ctx context.Context, email string) (*models.Officer, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Officer, error)
	UpdateStatus(ctx context.Context, id uint, from, to models.OfficerStatus, now time.Time) (bool, error)
	ListPending(ctx context.Context) ([]models.PendingOfficerView, error)
}

type officerRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewOfficerRepository returns a new OfficerRepository implementation.
func NewOfficerRepository(db *gorm.DB) OfficerRepository {
	return &officerRepository{db: db, read: db}
}

const duplicateOfficerMessage = "Officer with this ID number or email already exists"

func (r *officerRepository) Create(ctx context.Context, officer *models.Officer) error {
	if err := r.db.WithContext(ctx).Create(officer).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError(duplicateOfficerMessage)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *officerRepository) ExistsByIDNumberOrEmail(ctx context.Context, idNumber, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Officer{}).
		Where("id_number = ? OR email = ?", idNumber, email).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *officerRepository) GetByID(ctx context.Context, id uint) (*models.Officer, error) {
	var officer models.Officer
	if err := r.read.WithContext(ctx).First(&officer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Officer not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &officer, nil
}

// GetByEmail returns (nil, nil) when no officer uses email.
func (r *officerRepository) GetByEmail(ctx context.Context, email string) (*models.Officer, error) {
	var officer models.Officer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&officer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &officer, nil
}

func (r *officerRepository) GetForUpdate(ctx context.Context, id uint) (*models.Officer, error) {
	var officer models.Officer
	if err := forUpdate(r.db.WithContext(ctx)).First(&officer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Officer not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &officer, nil
}

// UpdateStatus moves the officer only if it is still in from.
func (r *officerRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OfficerStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Officer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *officerRepository) ListPending(ctx context.Context) ([]models.PendingOfficerView, error) {
	var rows []models.PendingOfficerView
	err := r.read.WithContext(ctx).Model(&models.Officer{}).
		Select("id, id_number, email, phone_number, full_name, station, created_at").
		Where("status = ?", models.OfficerStatusPending).
		Order("created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
