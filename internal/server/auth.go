package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"idportal/internal/middleware"
	"idportal/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	wsTicketTTL       = 60 * time.Second
	wsTicketKeyPrefix = "ws_ticket:"
)

// AuthRequired authenticates the request and, when roles are given, requires
// one of them. WebSocket routes accept only a single-use ticket; every other
// route expects a Bearer token.
func (s *Server) AuthRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws/") && c.Path() != "/api/ws/ticket"

		var id uint
		var role models.Role
		if isWSPath {
			var err error
			id, role, err = s.redeemWSTicket(c.Context(), c.Query("ticket"))
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		} else {
			tokenString := ""
			if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
			if tokenString == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Access token required"))
			}
			principal, err := s.tokens.Parse(tokenString)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			id, role = principal.ID, principal.Role
		}

		if len(roles) > 0 && !hasRole(role, roles) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError(roleRequiredMessage[roles[0]]))
		}

		c.Locals("userID", id)
		c.Locals("role", role)
		c.SetUserContext(middleware.WithActor(c.UserContext(), id, string(role)))
		return c.Next()
	}
}

// OfficerRequired admits officers only.
func (s *Server) OfficerRequired() fiber.Handler {
	return s.AuthRequired(models.RoleOfficer)
}

// AdminRequired admits admins only.
func (s *Server) AdminRequired() fiber.Handler {
	return s.AuthRequired(models.RoleAdmin)
}

var roleRequiredMessage = map[models.Role]string{
	models.RoleOfficer: "Officer access required",
	models.RoleAdmin:   "Admin access required",
}

func hasRole(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// issueWSTicket stores a single-use ticket for the actor.
func (s *Server) issueWSTicket(ctx context.Context, id uint, role models.Role) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis unavailable")
	}
	ticket := uuid.NewString()
	value := fmt.Sprintf("%s:%d", role, id)
	if err := s.redis.Set(ctx, wsTicketKeyPrefix+ticket, value, wsTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// redeemWSTicket consumes ticket atomically and returns its actor.
func (s *Server) redeemWSTicket(ctx context.Context, ticket string) (uint, models.Role, error) {
	if ticket == "" || s.redis == nil {
		return 0, "", redis.Nil
	}
	value, err := s.redis.GetDel(ctx, wsTicketKeyPrefix+ticket).Result()
	if err != nil {
		return 0, "", err
	}
	rawRole, rawID, ok := strings.Cut(value, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed ticket value")
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return 0, "", fmt.Errorf("malformed ticket id")
	}
	role := models.Role(rawRole)
	if role != models.RoleOfficer && role != models.RoleAdmin {
		return 0, "", fmt.Errorf("malformed ticket role")
	}
	return uint(id), role, nil
}
