package repository

import (
	"context"
	"errors"

	"idportal/internal/models"

	"gorm.io/gorm"
)

// LostIDRepository defines persistence operations for lost-ID replacements.
type LostIDRepository interface {
	Create(ctx context.Context, app *models.LostIDApplication) error
	GetByID(ctx context.Context, id uint) (*models.LostIDApplication, error)
	GetForUpdate(ctx context.Context, id uint) (*models.LostIDApplication, error)
	SaveTransition(ctx context.Context, app *models.LostIDApplication, from models.LostIDStatus) (bool, error)

	// TrackingView resolves a waiting card in the shape of an application lookup.
	TrackingView(ctx context.Context, number string) (*models.TrackingView, error)
	LostTrackingView(ctx context.Context, number string) (*models.LostIDTrackingView, error)

	ListAdmin(ctx context.Context) ([]models.AdminLostIDRow, error)
	ListAdminMerged(ctx context.Context) ([]models.AdminApplicationRow, error)
	ListByOfficer(ctx context.Context, officerID uint) ([]models.OfficerLostIDRow, error)
	ListByOfficerMerged(ctx context.Context, officerID uint) ([]models.OfficerApplicationRow, error)
}

type lostIDRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

// NewLostIDRepository returns a new LostIDRepository implementation.
func NewLostIDRepository(db *gorm.DB) LostIDRepository {
	return &lostIDRepository{db: db, read: db}
}

func (r *lostIDRepository) Create(ctx context.Context, app *models.LostIDApplication) error {
	err := r.db.WithContext(ctx).Omit("Officer", "Citizen", "Payment", "Documents").Create(app).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Waiting card number already in use", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *lostIDRepository) GetByID(ctx context.Context, id uint) (*models.LostIDApplication, error) {
	var app models.LostIDApplication
	if err := r.db.WithContext(ctx).Preload("Payment").First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(applicationNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *lostIDRepository) GetForUpdate(ctx context.Context, id uint) (*models.LostIDApplication, error) {
	var app models.LostIDApplication
	if err := forUpdate(r.db.WithContext(ctx)).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(applicationNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *lostIDRepository) SaveTransition(ctx context.Context, app *models.LostIDApplication, from models.LostIDStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LostIDApplication{}).
		Where("id = ? AND status = ?", app.ID, from).
		Updates(map[string]interface{}{"status": app.Status, "updated_at": app.UpdatedAt})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *lostIDRepository) TrackingView(ctx context.Context, number string) (*models.TrackingView, error) {
	var views []models.TrackingView
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.waiting_card_number AS application_number, COALESCE(c.full_names, '') AS full_names, l.status, l.created_at, l.updated_at").
		Joins("LEFT JOIN citizens c ON l.citizen_id_number = c.id_number").
		Where("l.waiting_card_number = ?", number).
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

func (r *lostIDRepository) LostTrackingView(ctx context.Context, number string) (*models.LostIDTrackingView, error) {
	var views []models.LostIDTrackingView
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.waiting_card_number, l.citizen_id_number, l.status, l.created_at, l.updated_at, a.full_names AS citizen_name").
		Joins("LEFT JOIN applications a ON l.citizen_id_number = a.generated_id_number").
		Where("l.waiting_card_number = ?", number).
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

// ListAdmin prefers the citizen projection for names and falls back to the
// issuing application.
func (r *lostIDRepository) ListAdmin(ctx context.Context) ([]models.AdminLostIDRow, error) {
	var rows []models.AdminLostIDRow
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.id, l.waiting_card_number, l.citizen_id_number, l.ob_number, l.payment_method, l.status, l.created_at, " +
			"o.full_name AS officer_name, COALESCE(c.full_names, a.full_names) AS citizen_name").
		Joins("LEFT JOIN officers o ON l.officer_id = o.id").
		Joins("LEFT JOIN citizens c ON l.citizen_id_number = c.id_number").
		Joins("LEFT JOIN applications a ON l.citizen_id_number = a.generated_id_number").
		Order("l.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *lostIDRepository) ListAdminMerged(ctx context.Context) ([]models.AdminApplicationRow, error) {
	var rows []models.AdminApplicationRow
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.id, l.waiting_card_number AS application_number, c.full_names, l.status, l.created_at, l.updated_at, o.full_name AS officer_name").
		Joins("LEFT JOIN officers o ON l.officer_id = o.id").
		Joins("LEFT JOIN citizens c ON l.citizen_id_number = c.id_number").
		Order("l.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range rows {
		rows[i].ApplicationType = models.ApplicationTypeRenewal
		rows[i].SourceType = models.SourceLostID
	}
	return rows, nil
}

func (r *lostIDRepository) ListByOfficer(ctx context.Context, officerID uint) ([]models.OfficerLostIDRow, error) {
	var rows []models.OfficerLostIDRow
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.id, l.waiting_card_number, l.citizen_id_number, l.ob_number, l.payment_method, l.status, l.created_at, l.updated_at, a.full_names AS citizen_name").
		Joins("LEFT JOIN applications a ON l.citizen_id_number = a.generated_id_number").
		Where("l.officer_id = ?", officerID).
		Order("l.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// ListByOfficerMerged reports the citizen's ID number in generated_id_number.
func (r *lostIDRepository) ListByOfficerMerged(ctx context.Context, officerID uint) ([]models.OfficerApplicationRow, error) {
	var rows []models.OfficerApplicationRow
	err := r.read.WithContext(ctx).Table("lost_id_applications AS l").
		Select("l.id, l.waiting_card_number AS application_number, c.full_names, l.status, l.created_at, l.updated_at, l.citizen_id_number AS generated_id_number").
		Joins("LEFT JOIN citizens c ON l.citizen_id_number = c.id_number").
		Where("l.officer_id = ?", officerID).
		Order("l.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range rows {
		rows[i].ApplicationType = models.ApplicationTypeRenewal
		rows[i].SourceType = models.SourceLostID
	}
	return rows, nil
}
