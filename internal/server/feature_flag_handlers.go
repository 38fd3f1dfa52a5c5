package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type featureFlagsResponse struct {
	Subject   string            `json:"subject"`
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Show configured feature flags
// @Description Evaluates each flag for ?subject=, usually an application number. Defaults to the calling admin's ID.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Rollout subject"
// @Success 200 {object} featureFlagsResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	resp := featureFlagsResponse{
		Subject:   c.Query("subject", strconv.FormatUint(uint64(actorID(c)), 10)),
		Raw:       map[string]string{},
		Evaluated: map[string]bool{},
	}
	if s.featureFlags != nil {
		resp.Raw = s.featureFlags.Raw()
		resp.Evaluated = s.featureFlags.Snapshot(resp.Subject)
	}
	return c.JSON(resp)
}
