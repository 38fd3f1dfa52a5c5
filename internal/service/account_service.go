package service

import (
	"context"
	"log/slog"
	"strings"

	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/observability"
	"idportal/internal/repository"
	"idportal/internal/validation"
)

// OfficerSession is returned on a successful officer login.
type OfficerSession struct {
	Token   string
	Officer *models.Officer
}

// AdminSession is returned on a successful admin login.
type AdminSession struct {
	Token string
	Admin *models.Admin
}

// AccountService covers officer registration, both logins and officer moderation.
type AccountService struct {
	reg    repository.Registry
	tokens *TokenService
	now    Clock
}

func NewAccountService(reg repository.Registry, tokens *TokenService, now Clock) *AccountService {
	if now == nil {
		now = defaultClock
	}
	return &AccountService{reg: reg, tokens: tokens, now: now}
}

// Signup registers a pending officer.
func (s *AccountService) Signup(ctx context.Context, req validation.SignupRequest) (*models.Officer, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	idNumber := strings.TrimSpace(req.IDNumber)

	exists, err := s.reg.Officers().ExistsByIDNumberOrEmail(ctx, idNumber, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewValidationError("Officer with this ID number or email already exists")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	officer := &models.Officer{
		IDNumber:     idNumber,
		Email:        email,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		FullName:     strings.TrimSpace(req.FullName),
		Station:      strings.TrimSpace(req.Station),
		PasswordHash: hash,
		Status:       models.OfficerStatusPending,
	}
	if err := s.reg.Officers().Create(ctx, officer); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "officer registered",
		slog.Uint64("officer_id", uint64(officer.ID)), slog.String("station", officer.Station))
	return officer, nil
}

// OfficerLogin authenticates an approved officer.
func (s *AccountService) OfficerLogin(ctx context.Context, req validation.OfficerLoginRequest) (*OfficerSession, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	officer, err := s.reg.Officers().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if officer == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	// Approval is checked before the password.
	if officer.Status != models.OfficerStatusApproved {
		return nil, models.NewForbiddenError("Account not approved by admin")
	}
	if !checkPassword(officer.PasswordHash, req.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.tokens.Issue(officer.ID, models.RoleOfficer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &OfficerSession{Token: token, Officer: officer}, nil
}

// AdminLogin authenticates an admin.
func (s *AccountService) AdminLogin(ctx context.Context, req validation.AdminLoginRequest) (*AdminSession, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	admin, err := s.reg.Admins().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if admin == nil || !checkPassword(admin.PasswordHash, req.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.tokens.Issue(admin.ID, models.RoleAdmin)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AdminSession{Token: token, Admin: admin}, nil
}

// PendingOfficers lists the moderation queue, newest first.
func (s *AccountService) PendingOfficers(ctx context.Context) ([]models.PendingOfficerView, error) {
	return s.reg.Officers().ListPending(ctx)
}

// ModerateOfficer approves or rejects a pending officer.
func (s *AccountService) ModerateOfficer(ctx context.Context, id uint, action models.Action) error {
	err := s.reg.Transaction(ctx, func(tx repository.Registry) error {
		officer, err := tx.Officers().GetForUpdate(ctx, id)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.NewNotFoundMessage("Officer not found or already processed")
			}
			return err
		}
		from := officer.Status
		if err := officer.Moderate(action, s.now()); err != nil {
			return models.NewNotFoundMessage("Officer not found or already processed")
		}
		ok, err := tx.Officers().UpdateStatus(ctx, officer.ID, from, officer.Status, officer.UpdatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundMessage("Officer not found or already processed")
		}
		return nil
	})
	observability.RecordTransition("officer", string(action), err)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "officer moderated",
		slog.Uint64("officer_id", uint64(id)), slog.String("action", string(action)))
	return nil
}

// CreateAdmin registers an admin account. Used by the admin CLI and dev bootstrap.
func (s *AccountService) CreateAdmin(ctx context.Context, username, fullName, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	if fullName == "" {
		fullName = username
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	admin := &models.Admin{Username: username, FullName: fullName, PasswordHash: hash}
	if err := s.reg.Admins().Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ResetAdminPassword replaces an admin's password hash.
func (s *AccountService) ResetAdminPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return models.NewValidationError("password is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.reg.Admins().UpdatePassword(ctx, strings.TrimSpace(username), hash)
}

// ListAdmins returns every admin account.
func (s *AccountService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return s.reg.Admins().List(ctx)
}
