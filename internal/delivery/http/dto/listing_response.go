package dto

import (
	"time"

	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/usecase"

	"github.com/google/uuid"
)

type ListingResponse struct {
	ID               uuid.UUID      `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	OwnerID          uuid.UUID      `json:"owner_id"`
	ContentType      string         `json:"content_type"`
	ContentName      string         `json:"content_name"`
	DataCenter       string         `json:"data_center"`
	Server           string         `json:"server"`
	RolesNeeded      map[string]int `json:"roles_needed"`
	Schedule         []string       `json:"schedule"`
	Requirements     map[string]any `json:"requirements"`
	VoiceChat        string         `json:"voice_chat"`
	AdditionalInfo   string         `json:"additional_info"`
	State            string         `json:"state"`
	ApplicationCount int            `json:"application_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func NewListingResponse(l listing.Listing) ListingResponse {
	res := ListingResponse{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		OwnerID:          l.OwnerID,
		ContentType:      l.ContentType,
		ContentName:      l.ContentName,
		DataCenter:       l.DataCenter,
		Server:           l.Server,
		RolesNeeded:      l.RolesNeeded,
		Schedule:         nonNilStrings(l.Schedule),
		Requirements:     l.Requirements,
		VoiceChat:        l.VoiceChat,
		AdditionalInfo:   l.AdditionalInfo,
		State:            l.State.String(),
		ApplicationCount: l.ApplicationCount,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	if res.RolesNeeded == nil {
		res.RolesNeeded = map[string]int{}
	}
	if res.Requirements == nil {
		res.Requirements = map[string]any{}
	}
	return res
}

func NewListingResponses(items []listing.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(items))
	for _, l := range items {
		out = append(out, NewListingResponse(l))
	}
	return out
}

type ListingPageResponse struct {
	Items      []ListingResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

func NewListingPageResponse(p usecase.ListingPage) ListingPageResponse {
	pages := 0
	if p.PerPage > 0 {
		pages = (p.Total + p.PerPage - 1) / p.PerPage
	}
	return ListingPageResponse{
		Items:      NewListingResponses(p.Items),
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
	}
}

type PlayerSuggestionResponse struct {
	Player     UserProfileResponse `json:"player"`
	MatchScore int                 `json:"match_score"`
	Reasons    []string            `json:"reasons"`
}

func NewPlayerSuggestionResponses(items []usecase.PlayerSuggestion) []PlayerSuggestionResponse {
	out := make([]PlayerSuggestionResponse, 0, len(items))
	for _, it := range items {
		out = append(out, PlayerSuggestionResponse{
			Player:     NewUserProfileResponse(it.Player),
			MatchScore: it.Score,
			Reasons:    nonNilStrings(it.Reasons),
		})
	}
	return out
}

type RecommendationResponse struct {
	Listing    ListingResponse `json:"listing"`
	MatchScore int             `json:"match_score"`
	Reasons    []string        `json:"reasons"`
}

func NewRecommendationResponses(items []usecase.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(items))
	for _, it := range items {
		out = append(out, RecommendationResponse{
			Listing:    NewListingResponse(it.Listing),
			MatchScore: it.Score,
			Reasons:    nonNilStrings(it.Reasons),
		})
	}
	return out
}
