package server

import (
	"idportal/internal/models"
	"idportal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// OfficerSignup handles POST /api/officer/signup
// @Summary Officer signup
// @Description Register an officer account pending admin approval
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.SignupRequest true "Signup request"
// @Success 201 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /officer/signup [post]
func (s *Server) OfficerSignup(c *fiber.Ctx) error {
	var req validation.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.accounts.Signup(c.UserContext(), req); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Application submitted successfully. Awaiting admin approval.",
	})
}

// OfficerLogin handles POST /api/officer/login
// @Summary Officer login
// @Description Authenticate an approved officer and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.OfficerLoginRequest true "Login credentials"
// @Success 200 {object} object{token=string,officer=object}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /officer/login [post]
func (s *Server) OfficerLogin(c *fiber.Ctx) error {
	var req validation.OfficerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, err := s.accounts.OfficerLogin(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"token": session.Token,
		"officer": fiber.Map{
			"id":       session.Officer.ID,
			"email":    session.Officer.Email,
			"fullName": session.Officer.FullName,
			"station":  session.Officer.Station,
		},
	})
}

// AdminLogin handles POST /api/admin/login
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.AdminLoginRequest true "Login credentials"
// @Success 200 {object} object{token=string,admin=object}
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/login [post]
func (s *Server) AdminLogin(c *fiber.Ctx) error {
	var req validation.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, err := s.accounts.AdminLogin(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"token": session.Token,
		"admin": fiber.Map{
			"id":       session.Admin.ID,
			"username": session.Admin.Username,
			"fullName": session.Admin.FullName,
		},
	})
}

// GetPendingOfficers handles GET /api/admin/officers/pending
// @Summary List officers awaiting approval
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{officers=[]models.PendingOfficerView}
// @Router /admin/officers/pending [get]
func (s *Server) GetPendingOfficers(c *fiber.Ctx) error {
	officers, err := s.accounts.PendingOfficers(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	if officers == nil {
		officers = []models.PendingOfficerView{}
	}
	return c.JSON(fiber.Map{"officers": officers})
}

// ApproveOfficer handles PUT /api/admin/officers/:id/approve
// @Summary Approve a pending officer
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Officer ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/officers/{id}/approve [put]
func (s *Server) ApproveOfficer(c *fiber.Ctx) error {
	return s.moderateOfficer(c, models.ActionApprove, "Officer approved successfully")
}

// RejectOfficer handles PUT /api/admin/officers/:id/reject
// @Summary Reject a pending officer
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Officer ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/officers/{id}/reject [put]
func (s *Server) RejectOfficer(c *fiber.Ctx) error {
	return s.moderateOfficer(c, models.ActionReject, "Officer rejected")
}

func (s *Server) moderateOfficer(c *fiber.Ctx, action models.Action, message string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.accounts.ModerateOfficer(c.UserContext(), id, action); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}
