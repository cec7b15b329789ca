package handler

import (
	"raid-recruit/internal/delivery/http/dto"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/pkg/response"
	"raid-recruit/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ListingHandler struct {
	uc usecase.ListingUsecase
}

type createListingRequest struct {
	Title          string         `json:"title" validate:"required,max=120"`
	Description    string         `json:"description" validate:"required,max=4000"`
	ContentType    string         `json:"content_type" validate:"required,max=64"`
	ContentName    string         `json:"content_name" validate:"max=120"`
	DataCenter     string         `json:"data_center" validate:"required,max=32"`
	Server         string         `json:"server" validate:"max=32"`
	RolesNeeded    map[string]int `json:"roles_needed" validate:"omitempty,dive,gte=0"`
	Schedule       []string       `json:"schedule" validate:"max=14"`
	Requirements   map[string]any `json:"requirements"`
	VoiceChat      string         `json:"voice_chat" validate:"max=32"`
	AdditionalInfo string         `json:"additional_info" validate:"max=2000"`
	State          string         `json:"state"`
}

type updateListingRequest struct {
	Title          *string        `json:"title" validate:"omitempty,min=1,max=120"`
	Description    *string        `json:"description" validate:"omitempty,min=1,max=4000"`
	ContentType    *string        `json:"content_type" validate:"omitempty,max=64"`
	ContentName    *string        `json:"content_name" validate:"omitempty,max=120"`
	DataCenter     *string        `json:"data_center" validate:"omitempty,max=32"`
	Server         *string        `json:"server" validate:"omitempty,max=32"`
	RolesNeeded    map[string]int `json:"roles_needed" validate:"omitempty,dive,gte=0"`
	Schedule       []string       `json:"schedule" validate:"max=14"`
	Requirements   map[string]any `json:"requirements"`
	VoiceChat      *string        `json:"voice_chat" validate:"omitempty,max=32"`
	AdditionalInfo *string        `json:"additional_info" validate:"omitempty,max=2000"`
	State          *string        `json:"state"`
}

type changeStateRequest struct {
	State string `json:"state" validate:"required"`
}

func NewListingHandler(uc usecase.ListingUsecase) *ListingHandler {
	return &ListingHandler{uc: uc}
}

func (h *ListingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/listings")
	grp.Get("/", h.List)
	grp.Get("/mine", h.ListMine)
	grp.Post("/", h.Create)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Patch("/:id/state", h.ChangeState)
	grp.Delete("/:id", h.Delete)
	grp.Get("/:id/suggested-players", h.SuggestedPlayers)
}

func (h *ListingHandler) List(c fiber.Ctx) error {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return err
	}
	perPage, err := parseQueryIntStrict(c, "per_page", 20)
	if err != nil {
		return err
	}

	res, err := h.uc.List(c.Context(), usecase.ListingListParams{
		DataCenter:  c.Query("data_center"),
		Server:      c.Query("server"),
		ContentType: c.Query("content_type"),
		State:       c.Query("state"),
		Page:        page,
		PerPage:     perPage,
	}, optionalUser(c))
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingPageResponse(res))
}

func (h *ListingHandler) ListMine(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListMine(c.Context(), userID)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingResponses(items))
}

func (h *ListingHandler) Get(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	l, err := h.uc.Get(c.Context(), id, optionalUser(c))
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingResponse(l))
}

func (h *ListingHandler) Create(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createListingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	l, err := h.uc.Create(c.Context(), userID, usecase.ListingInput{
		Title:          req.Title,
		Description:    req.Description,
		ContentType:    req.ContentType,
		ContentName:    req.ContentName,
		DataCenter:     req.DataCenter,
		Server:         req.Server,
		RolesNeeded:    req.RolesNeeded,
		Schedule:       req.Schedule,
		Requirements:   req.Requirements,
		VoiceChat:      req.VoiceChat,
		AdditionalInfo: req.AdditionalInfo,
		State:          req.State,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return response.Created(c, dto.NewListingResponse(l))
}

func (h *ListingHandler) Update(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateListingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	l, err := h.uc.Update(c.Context(), id, userID, listing.Patch{
		Title:          req.Title,
		Description:    req.Description,
		ContentType:    req.ContentType,
		ContentName:    req.ContentName,
		DataCenter:     req.DataCenter,
		Server:         req.Server,
		RolesNeeded:    req.RolesNeeded,
		Schedule:       req.Schedule,
		Requirements:   req.Requirements,
		VoiceChat:      req.VoiceChat,
		AdditionalInfo: req.AdditionalInfo,
		State:          req.State,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingResponse(l))
}

func (h *ListingHandler) ChangeState(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req changeStateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	l, err := h.uc.ChangeState(c.Context(), id, userID, req.State)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingResponse(l))
}

func (h *ListingHandler) Delete(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Context(), id, userID); err != nil {
		return mapDomainError(err)
	}
	return response.NoContent(c)
}

func (h *ListingHandler) SuggestedPlayers(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return err
	}

	items, err := h.uc.SuggestedPlayers(c.Context(), id, userID, limit)
	if err != nil {
		return mapDomainError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPlayerSuggestionResponses(items))
}
