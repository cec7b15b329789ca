package handler

import (
	"errors"
	"strconv"
	"strings"

	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/domain/application"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/domain/user"
	"raid-recruit/internal/pkg/response"
	"raid-recruit/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func bindBody(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		if details := middleware.ValidationDetails(err); details != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Validation failed", details, err)
		}
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	return nil
}

func requireUser(c fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return id, nil
}

func optionalUser(c fiber.Ctx) *uuid.UUID {
	return middleware.OptionalUserID(c)
}

func parseUUIDParam(c fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(key)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid "+key, nil, err)
	}
	return id, nil
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, middleware.NewAppError(fiber.StatusBadRequest, "Invalid "+key, nil, err)
	}
	return v, nil
}

// mapDomainError covers the sentinels shared by the listing and
// application endpoints.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, listing.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Listing not found", nil, err)
	case errors.Is(err, application.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Application not found", nil, err)
	case errors.Is(err, user.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, listing.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusForbidden, "Not allowed", nil, err)
	case errors.Is(err, listing.ErrConflict):
		return middleware.NewAppError(fiber.StatusConflict, "Conflict", nil, err)
	case errors.Is(err, listing.ErrInvalidState):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid listing state", nil, err)
	case errors.Is(err, listing.ErrInvalidListing):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, application.ErrInvalidStatus):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid application status", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusForbidden, response.MessageForbidden, nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
