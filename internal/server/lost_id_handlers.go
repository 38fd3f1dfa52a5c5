package server

import (
	"idportal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitLostID handles POST /api/lost-id-applications
// @Summary Submit a lost-ID replacement
// @Description multipart/form-data with id_number, ob_number, ob_description, payment_method and the ob_photo, passport_photo and birth_certificate files
// @Tags lost-id
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{message=string,waiting_card_number=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lost-id-applications [post]
func (s *Server) SubmitLostID(c *fiber.Ctx) error {
	sub, err := s.parseSubmission(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	lost, err := s.lostIDs.Submit(c.UserContext(), service.SubmitLostIDInput{
		OfficerID: actorID(c),
		Fields:    sub.fields,
		Files:     sub.uploads,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":             "Lost ID application submitted successfully",
		"waiting_card_number": lost.WaitingCardNumber,
	})
}

// GetAdminLostIDs handles GET /api/admin/lost-id-applications
// @Summary List lost-ID replacements
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{applications=[]models.AdminLostIDRow}
// @Router /admin/lost-id-applications [get]
func (s *Server) GetAdminLostIDs(c *fiber.Ctx) error {
	rows, err := s.listings.AdminLostIDs(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": rows})
}

// ApproveLostID handles PUT /api/admin/lost-id-applications/:id/approve
// @Summary Approve a replacement and settle its payment
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Lost-ID application ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/lost-id-applications/{id}/approve [put]
func (s *Server) ApproveLostID(c *fiber.Ctx) error {
	return s.applyTransition(c, s.lostIDs.Approve, "Lost ID application approved successfully")
}

// RejectLostID handles PUT /api/admin/lost-id-applications/:id/reject
// @Summary Reject a replacement
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Lost-ID application ID"
// @Success 200 {object} object{message=string}
// @Router /admin/lost-id-applications/{id}/reject [put]
func (s *Server) RejectLostID(c *fiber.Ctx) error {
	return s.applyTransition(c, s.lostIDs.Reject, "Lost ID application rejected")
}

// DispatchLostID handles PUT /api/admin/lost-id-applications/:id/dispatch
// @Summary Dispatch an approved replacement
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Lost-ID application ID"
// @Success 200 {object} object{message=string}
// @Router /admin/lost-id-applications/{id}/dispatch [put]
func (s *Server) DispatchLostID(c *fiber.Ctx) error {
	return s.applyTransition(c, s.lostIDs.Dispatch, "Lost ID replacement dispatched successfully")
}

// GetOfficerLostIDs handles GET /api/officer/lost-id-applications
// @Summary The caller's lost-ID replacements
// @Tags officer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.OfficerLostIDRow
// @Router /officer/lost-id-applications [get]
func (s *Server) GetOfficerLostIDs(c *fiber.Ctx) error {
	rows, err := s.listings.OfficerLostIDs(c.UserContext(), actorID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rows)
}

// MarkLostIDCardArrived handles PUT /api/officer/lost-id-applications/:id/card-arrived
// @Summary Confirm the replacement card reached the station
// @Tags officer
// @Security BearerAuth
// @Param id path int true "Lost-ID application ID"
// @Success 200 {object} object{message=string}
// @Router /officer/lost-id-applications/{id}/card-arrived [put]
func (s *Server) MarkLostIDCardArrived(c *fiber.Ctx) error {
	return s.applyTransition(c, s.lostIDs.MarkCardArrived, "Lost ID replacement card arrival confirmed")
}

// MarkLostIDCardCollected handles PUT /api/officer/lost-id-applications/:id/card-collected
// @Summary Confirm the citizen collected the replacement card
// @Tags officer
// @Security BearerAuth
// @Param id path int true "Lost-ID application ID"
// @Success 200 {object} object{message=string}
// @Router /officer/lost-id-applications/{id}/card-collected [put]
func (s *Server) MarkLostIDCardCollected(c *fiber.Ctx) error {
	return s.applyTransition(c, s.lostIDs.MarkCardCollected, "Lost ID replacement card collection confirmed")
}
