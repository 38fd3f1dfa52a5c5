package repository

import (
	"context"
	"errors"
	"time"

	"idportal/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository manages the fee record of a lost-ID replacement.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetForUpdate(ctx context.Context, lostID uint) (*models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository returns a new PaymentRepository implementation.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Payment already recorded", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetForUpdate returns (nil, nil) when the application has no payment row.
func (r *paymentRepository) GetForUpdate(ctx context.Context, lostID uint) (*models.Payment, error) {
	var payment models.Payment
	err := forUpdate(r.db.WithContext(ctx)).Where("lost_id_application_id = ?", lostID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &payment, nil
}

func (r *paymentRepository) Save(ctx context.Context, payment *models.Payment) error {
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
