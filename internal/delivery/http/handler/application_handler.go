package handler

import (
	"errors"

	"raid-recruit/internal/delivery/http/dto"
	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/pkg/response"
	"raid-recruit/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	uc usecase.ApplicationUsecase
}

type applyRequest struct {
	ListingID      string   `json:"listing_id" validate:"required,uuid"`
	Message        string   `json:"message" validate:"max=2000"`
	Availability   []string `json:"availability" validate:"max=14"`
	PreferredRoles []string `json:"preferred_roles" validate:"max=3"`
	Experience     string   `json:"experience" validate:"max=2000"`
}

type updateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func NewApplicationHandler(uc usecase.ApplicationUsecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

// RegisterRoutes expects r to already require authentication.
func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Apply)
	r.Get("/", h.ListMine)
	r.Get("/listing/:id", h.ListForListing)
	r.Patch("/:id/status", h.UpdateStatus)
	r.Delete("/:id", h.Withdraw)
}

func (h *ApplicationHandler) Apply(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req applyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid listing_id", nil, err)
	}

	a, err := h.uc.Apply(c.Context(), userID, usecase.ApplyInput{
		ListingID:      listingID,
		Message:        req.Message,
		Availability:   req.Availability,
		PreferredRoles: req.PreferredRoles,
		Experience:     req.Experience,
	})
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrInvalidState):
			return middleware.NewAppError(fiber.StatusConflict, "Listing is not accepting applications", nil, err)
		case errors.Is(err, listing.ErrConflict):
			return middleware.NewAppError(fiber.StatusConflict, "You cannot apply to this listing", nil, err)
		}
		return mapDomainError(err)
	}
	return response.Created(c, dto.NewApplicationResponse(a))
}

func (h *ApplicationHandler) ListMine(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListMine(c.Context(), userID)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponses(items))
}

func (h *ApplicationHandler) ListForListing(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	listingID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	items, err := h.uc.ListForListing(c.Context(), listingID, userID)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponses(items))
}

func (h *ApplicationHandler) UpdateStatus(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateApplicationStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	a, err := h.uc.UpdateStatus(c.Context(), id, userID, req.Status)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponse(a))
}

func (h *ApplicationHandler) Withdraw(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Withdraw(c.Context(), id, userID); err != nil {
		return mapDomainError(err)
	}
	return response.NoContent(c)
}
