package server

import (
	"log/slog"

	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a single-use WebSocket ticket
// @Description The ticket is valid for 60 seconds and is consumed by the first upgrade that presents it
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.issueWSTicket(c.UserContext(), actorID(c), actorRole(c))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "ws ticket issue failed", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// websocketUpgrade rejects plain HTTP requests to WebSocket routes.
func websocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// StatusFeedHandler streams status-change events. Officers receive events for
// their own applications; admins receive every event.
func (s *Server) StatusFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals("userID").(uint)
		role, _ := conn.Locals("role").(models.Role)
		if id == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		audience := notifications.AdminAudience
		if role == models.RoleOfficer {
			audience = notifications.OfficerAudience(id)
		}

		client, err := s.hub.Register(audience, conn)
		if err != nil {
			middleware.Logger.Warn("status feed rejected",
				slog.String("audience", audience), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		client.Serve()
	})
}
