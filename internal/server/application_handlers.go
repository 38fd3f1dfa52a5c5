package server

import (
	"context"

	"idportal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitApplication handles POST /api/applications
// @Summary Submit a new ID application
// @Description Accepts JSON or multipart/form-data with passportPhoto, birthCertificate and parentsId files
// @Tags applications
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{message=string,applicationNumber=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /applications [post]
func (s *Server) SubmitApplication(c *fiber.Ctx) error {
	sub, err := s.parseSubmission(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	app, err := s.applications.Submit(c.UserContext(), service.SubmitApplicationInput{
		OfficerID:           actorID(c),
		Fields:              sub.fields,
		SupportingDocuments: sub.supporting,
		Files:               sub.uploads,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":           "Application submitted successfully",
		"applicationNumber": app.ApplicationNumber,
	})
}

// TrackApplication handles GET /api/applications/track/:number
// @Summary Track an application or waiting card number
// @Tags tracking
// @Produce json
// @Param number path string true "Application or waiting card number"
// @Success 200 {object} object{application=models.TrackingView}
// @Failure 404 {object} models.ErrorResponse
// @Router /applications/track/{number} [get]
func (s *Server) TrackApplication(c *fiber.Ctx) error {
	view, err := s.tracking.Track(c.UserContext(), c.Params("number"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"application": view})
}

// TrackLostID handles GET /api/applications/track-lost/:number
// @Summary Track a lost-ID replacement by waiting card number
// @Tags tracking
// @Produce json
// @Param number path string true "Waiting card number"
// @Success 200 {object} object{application=models.LostIDTrackingView}
// @Failure 404 {object} models.ErrorResponse
// @Router /applications/track-lost/{number} [get]
func (s *Server) TrackLostID(c *fiber.Ctx) error {
	view, err := s.tracking.TrackLost(c.UserContext(), c.Params("number"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"application": view})
}

// GetCitizen handles GET /api/citizen/:id
// @Summary Look up a citizen by ID number
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID number"
// @Success 200 {object} models.Citizen
// @Failure 404 {object} models.ErrorResponse
// @Router /citizen/{id} [get]
func (s *Server) GetCitizen(c *fiber.Ctx) error {
	citizen, err := s.tracking.Citizen(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(citizen)
}

// GetAdminApplications handles GET /api/admin/applications
// @Summary List new and lost-ID applications, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{applications=[]models.AdminApplicationRow}
// @Router /admin/applications [get]
func (s *Server) GetAdminApplications(c *fiber.Ctx) error {
	rows, err := s.listings.AdminApplications(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": rows})
}

// GetApprovedApplications handles GET /api/admin/applications/approved
// @Summary List approved applications awaiting dispatch
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{applications=[]models.ApprovedApplicationRow}
// @Router /admin/applications/approved [get]
func (s *Server) GetApprovedApplications(c *fiber.Ctx) error {
	rows, err := s.listings.Approved(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": rows})
}

// GetApplication handles GET /api/admin/applications/:id
// @Summary Application detail with documents
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{application=models.ApplicationDetail}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/applications/{id} [get]
func (s *Server) GetApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.applications.Detail(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"application": detail})
}

// ApproveApplication handles PUT /api/admin/applications/:id/approve
// @Summary Approve an application and issue its ID number
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{message=string,id_number=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/applications/{id}/approve [put]
func (s *Server) ApproveApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	idNumber, err := s.applications.Approve(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":   "Application approved successfully",
		"id_number": idNumber,
	})
}

// RejectApplication handles PUT /api/admin/applications/:id/reject
// @Summary Reject a submitted application
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/applications/{id}/reject [put]
func (s *Server) RejectApplication(c *fiber.Ctx) error {
	return s.applyTransition(c, s.applications.Reject, "Application rejected successfully")
}

// DispatchApplication handles PUT /api/admin/applications/:id/dispatch
// @Summary Dispatch an approved application
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/applications/{id}/dispatch [put]
func (s *Server) DispatchApplication(c *fiber.Ctx) error {
	return s.applyTransition(c, s.applications.Dispatch, "Application dispatched successfully")
}

// GetOfficerApplications handles GET /api/officer/applications
// @Summary The caller's applications of both kinds, newest first
// @Tags officer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.OfficerApplicationRow
// @Router /officer/applications [get]
func (s *Server) GetOfficerApplications(c *fiber.Ctx) error {
	rows, err := s.listings.OfficerApplications(c.UserContext(), actorID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rows)
}

// MarkCardArrived handles PUT /api/officer/applications/:id/card-arrived
// @Summary Confirm the card reached the station
// @Tags officer
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /officer/applications/{id}/card-arrived [put]
func (s *Server) MarkCardArrived(c *fiber.Ctx) error {
	return s.applyTransition(c, s.applications.MarkCardArrived, "Card arrival confirmed")
}

// MarkCardCollected handles PUT /api/officer/applications/:id/card-collected
// @Summary Confirm the citizen collected the card
// @Tags officer
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /officer/applications/{id}/card-collected [put]
func (s *Server) MarkCardCollected(c *fiber.Ctx) error {
	return s.applyTransition(c, s.applications.MarkCardCollected, "Card collection confirmed")
}

// applyTransition runs a status transition on the :id parameter and replies
// with message on success.
func (s *Server) applyTransition(c *fiber.Ctx, apply func(ctx context.Context, id uint) error, message string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := apply(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}
