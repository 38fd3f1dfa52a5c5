package repository

import (
	"context"
	"errors"

	"idportal/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines persistence operations for new-ID applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Application, error)
	GetDetail(ctx context.Context, id uint) (*models.ApplicationDetail, error)
	// FindIssued returns the application that owns idNumber, or (nil, nil).
	FindIssued(ctx context.Context, idNumber string) (*models.Application, error)
	// SaveTransition persists app's status, ID number and updated_at if the
	// stored status still equals from. It reports whether a row changed.
	SaveTransition(ctx context.Context, app *models.Application, from models.ApplicationStatus) (bool, error)

	TrackingView(ctx context.Context, number string) (*models.TrackingView, error)
	ListAdmin(ctx context.Context) ([]models.AdminApplicationRow, error)
	ListApproved(ctx context.Context) ([]models.ApprovedApplicationRow, error)
	ListByOfficer(ctx context.Context, officerID uint) ([]models.OfficerApplicationRow, error)
}

type applicationRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewApplicationRepository returns a new ApplicationRepository implementation.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db, read: db}
}

const applicationNotFound = "Application not found"

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Omit("Officer", "Documents").Create(app).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Application number already in use", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(applicationNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) GetForUpdate(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := forUpdate(r.db.WithContext(ctx)).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(applicationNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) GetDetail(ctx context.Context, id uint) (*models.ApplicationDetail, error) {
	var app models.Application
	err := r.read.WithContext(ctx).
		Preload("Officer").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(applicationNotFound)
		}
		return nil, models.NewInternalError(err)
	}

	detail := &models.ApplicationDetail{Application: app}
	if app.Officer != nil {
		name := app.Officer.FullName
		detail.OfficerName = &name
	}
	if detail.Documents == nil {
		detail.Documents = []models.Document{}
	}
	return detail, nil
}

func (r *applicationRepository) FindIssued(ctx context.Context, idNumber string) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Where("generated_id_number = ? AND status IN ?", idNumber, models.IdentityStatuses()).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) SaveTransition(ctx context.Context, app *models.Application, from models.ApplicationStatus) (bool, error) {
	updates := map[string]interface{}{
		"status":     app.Status,
		"updated_at": app.UpdatedAt,
	}
	q := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ? AND status = ?", app.ID, from)
	if app.GeneratedIDNumber != nil {
		updates["generated_id_number"] = *app.GeneratedIDNumber
		if from == models.ApplicationStatusSubmitted {
			q = q.Where("generated_id_number IS NULL")
		}
	}

	res := q.Updates(updates)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return false, models.NewConflictError("ID number already issued", res.Error)
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *applicationRepository) TrackingView(ctx context.Context, number string) (*models.TrackingView, error) {
	var views []models.TrackingView
	err := r.read.WithContext(ctx).Model(&models.Application{}).
		Select("application_number, full_names, status, created_at, updated_at").
		Where("application_number = ?", number).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (r *applicationRepository) ListAdmin(ctx context.Context) ([]models.AdminApplicationRow, error) {
	var rows []models.AdminApplicationRow
	err := r.read.WithContext(ctx).Table("applications AS a").
		Select("a.id, a.application_number, a.full_names, a.status, a.application_type, a.created_at, a.updated_at, o.full_name AS officer_name").
		Joins("LEFT JOIN officers o ON a.officer_id = o.id").
		Order("a.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range rows {
		rows[i].SourceType = models.SourceRegular
	}
	return rows, nil
}

func (r *applicationRepository) ListApproved(ctx context.Context) ([]models.ApprovedApplicationRow, error) {
	var rows []models.ApprovedApplicationRow
	err := r.read.WithContext(ctx).Table("applications AS a").
		Select("a.id, a.application_number, a.full_names, a.application_type, a.generated_id_number, a.created_at, a.updated_at, o.full_name AS officer_name").
		Joins("LEFT JOIN officers o ON a.officer_id = o.id").
		Where("a.status = ?", models.ApplicationStatusApproved).
		Order("a.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *applicationRepository) ListByOfficer(ctx context.Context, officerID uint) ([]models.OfficerApplicationRow, error) {
	var rows []models.OfficerApplicationRow
	err := r.read.WithContext(ctx).Model(&models.Application{}).
		Select("id, application_number, full_names, status, created_at, updated_at, generated_id_number").
		Where("officer_id = ?", officerID).
		Order("created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range rows {
		rows[i].ApplicationType = models.SourceRegular
		rows[i].SourceType = models.SourceRegular
	}
	return rows, nil
}
