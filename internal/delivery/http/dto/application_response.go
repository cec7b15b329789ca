package dto

import (
	"time"

	"raid-recruit/internal/domain/application"

	"github.com/google/uuid"
)

type ApplicationResponse struct {
	ID             uuid.UUID `json:"id"`
	ListingID      uuid.UUID `json:"listing_id"`
	ListingTitle   string    `json:"listing_title,omitempty"`
	ApplicantID    uuid.UUID `json:"applicant_id"`
	ApplicantName  string    `json:"applicant_name,omitempty"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	Availability   []string  `json:"availability"`
	PreferredRoles []string  `json:"preferred_roles"`
	Experience     string    `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewApplicationResponse(a application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             a.ID,
		ListingID:      a.ListingID,
		ListingTitle:   a.ListingTitle,
		ApplicantID:    a.ApplicantID,
		ApplicantName:  a.ApplicantName,
		Status:         string(a.Status),
		Message:        a.Message,
		Availability:   nonNilStrings(a.Availability),
		PreferredRoles: nonNilStrings(a.PreferredRoles),
		Experience:     a.Experience,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func NewApplicationResponses(items []application.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewApplicationResponse(a))
	}
	return out
}
