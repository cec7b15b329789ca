package handler

import (
	"errors"

	"raid-recruit/internal/delivery/http/dto"
	"raid-recruit/internal/delivery/http/middleware"
	"raid-recruit/internal/domain/user"
	"raid-recruit/internal/pkg/response"
	"raid-recruit/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SearchHandler struct {
	users usecase.UserUsecase
	recs  usecase.RecommendationUsecase
}

func NewSearchHandler(users usecase.UserUsecase, recs usecase.RecommendationUsecase) *SearchHandler {
	return &SearchHandler{users: users, recs: recs}
}

// RegisterRoutes expects r to already require authentication.
func (h *SearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/players", h.SearchPlayers)
	r.Get("/recommended", h.Recommended)
}

func (h *SearchHandler) SearchPlayers(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	players, err := h.users.SearchPlayers(c.Context(), userID, user.PlayerFilter{
		DataCenter: c.Query("data_center"),
		Server:     c.Query("server"),
		Role:       c.Query("role"),
	})
	if err != nil {
		return mapUserUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserProfileResponses(players))
}

func (h *SearchHandler) Recommended(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return err
	}
	minScore, err := parseQueryIntStrict(c, "min_score", 0)
	if err != nil {
		return err
	}

	items, err := h.recs.Recommend(c.Context(), userID, usecase.RecommendationParams{
		Limit:    limit,
		MinScore: minScore,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnauthorized):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		case errors.Is(err, usecase.ErrInvalidInput):
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid min_score", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRecommendationResponses(items))
}
