package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/opencircle/backend/internal/services"
	"github.com/opencircle/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func parsePositiveInt(value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if parsed < 1 {
		return 0, errors.New("value must be positive")
	}
	return parsed, nil
}

// denied translates a policy decision into the response envelope. Reasons
// map 1:1 onto statuses: members probing the management surface get 401,
// policy ceilings get 403.
func denied(c *fiber.Ctx, d services.Decision) error {
	switch d.Reason {
	case services.DenyNotFound:
		return utils.Error(c, fiber.StatusNotFound, d.Message)
	case services.DenyForbidden:
		return utils.Error(c, fiber.StatusForbidden, d.Message)
	case services.DenyUnauthenticated, services.DenyUnauthorized:
		return utils.Error(c, fiber.StatusUnauthorized, d.Message)
	default:
		return utils.Error(c, fiber.StatusInternalServerError, d.Message)
	}
}
