package handler

import (
	"errors"

	"raid-recruit/internal/delivery/http/dto"
	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/domain/user"
	"raid-recruit/internal/pkg/response"
	"raid-recruit/internal/usecase"
	useruc "raid-recruit/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
)

type UserHandler struct {
	uc usecase.UserUsecase
}

type updateProfileRequest struct {
	CharacterName *string        `json:"character_name" validate:"omitempty,max=64"`
	Server        *string        `json:"server" validate:"omitempty,max=32"`
	DataCenter    *string        `json:"data_center" validate:"omitempty,max=32"`
	Bio           *string        `json:"bio" validate:"omitempty,max=2000"`
	Availability  []string       `json:"availability" validate:"max=14"`
	Roles         []string       `json:"roles" validate:"max=3"`
	Progression   map[string]any `json:"progression"`
}

type linkLodestoneRequest struct {
	LodestoneID string `json:"lodestone_id" validate:"required,numeric,max=12"`
}

func NewUserHandler(uc usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/users")
	grp.Get("/profile", h.GetProfile)
	grp.Put("/profile", h.UpdateProfile)
	grp.Post("/lodestone/link", h.LinkLodestone)
	grp.Post("/lodestone/verify", h.VerifyLodestone)
	grp.Post("/lodestone/unlink", h.UnlinkLodestone)
	grp.Get("/:id", h.GetPublic)
}

func (h *UserHandler) GetProfile(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	prof, err := h.uc.GetProfile(c.Context(), userID)
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func (h *UserHandler) GetPublic(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	prof, err := h.uc.GetPublic(c.Context(), id)
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func (h *UserHandler) UpdateProfile(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.CharacterName == nil && req.Server == nil && req.DataCenter == nil && req.Bio == nil &&
		req.Availability == nil && req.Roles == nil && req.Progression == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, nil)
	}

	prof, err := h.uc.UpdateProfile(c.Context(), userID, useruc.UpdateProfileInput{
		CharacterName: req.CharacterName,
		Server:        req.Server,
		DataCenter:    req.DataCenter,
		Bio:           req.Bio,
		Availability:  req.Availability,
		Roles:         req.Roles,
		Progression:   req.Progression,
	})
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func (h *UserHandler) LinkLodestone(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req linkLodestoneRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	prof, err := h.uc.LinkLodestone(c.Context(), userID, req.LodestoneID)
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func (h *UserHandler) VerifyLodestone(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	prof, err := h.uc.VerifyLodestone(c.Context(), userID)
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func (h *UserHandler) UnlinkLodestone(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	prof, err := h.uc.UnlinkLodestone(c.Context(), userID)
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponse(prof))
}

func mapUserUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, useruc.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	case errors.Is(err, user.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, user.ErrCharacterNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Lodestone character not found", nil, err)
	case errors.Is(err, useruc.ErrLodestoneNotLinked):
		return middleware.NewAppError(fiber.StatusBadRequest, "No Lodestone character linked", nil, err)
	case errors.Is(err, useruc.ErrLodestoneTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Lodestone character already linked to another account", nil, err)
	case errors.Is(err, useruc.ErrLookupUnavailable):
		return middleware.NewAppError(fiber.StatusBadGateway, "Lodestone unavailable", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
