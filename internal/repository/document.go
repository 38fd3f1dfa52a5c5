package repository

import (
	"context"

	"idportal/internal/models"

	"gorm.io/gorm"
)

// DocumentRepository stores attachment rows.
type DocumentRepository interface {
	CreateBatch(ctx context.Context, docs []models.Document) error
	ListByApplication(ctx context.Context, applicationID uint) ([]models.Document, error)
	ListByLostID(ctx context.Context, lostID uint) ([]models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository returns a new DocumentRepository implementation.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) CreateBatch(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if err := r.db.WithContext(ctx).Create(&docs).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *documentRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}

func (r *documentRepository) ListByLostID(ctx context.Context, lostID uint) ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.WithContext(ctx).Where("lost_id_application_id = ?", lostID).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}
