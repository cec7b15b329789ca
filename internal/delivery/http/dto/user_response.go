package dto

import (
	"time"

	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

type LodestoneResponse struct {
	LodestoneID  string         `json:"lodestone_id"`
	VerifiedAt   *time.Time     `json:"verified_at"`
	Jobs         map[string]int `json:"jobs"`
	GrandCompany string         `json:"grand_company,omitempty"`
	FreeCompany  string         `json:"free_company,omitempty"`
}

type UserProfileResponse struct {
	ID            uuid.UUID          `json:"id"`
	Username      string             `json:"username"`
	Email         string             `json:"email,omitempty"`
	CharacterName string             `json:"character_name"`
	Server        string             `json:"server"`
	DataCenter    string             `json:"data_center"`
	Bio           string             `json:"bio"`
	Availability  []string           `json:"availability"`
	Roles         []string           `json:"roles"`
	Progression   map[string]any     `json:"progression"`
	Lodestone     *LodestoneResponse `json:"lodestone"`
	CreatedAt     time.Time          `json:"created_at"`
}

// NewUserProfileResponse renders a profile. Callers strip the email before
// passing other players' profiles.
func NewUserProfileResponse(u user.User) UserProfileResponse {
	res := UserProfileResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		CharacterName: u.CharacterName,
		Server:        u.Server,
		DataCenter:    u.DataCenter,
		Bio:           u.Bio,
		Availability:  nonNilStrings(u.Availability),
		Roles:         nonNilStrings(u.Roles),
		Progression:   u.Progression,
		CreatedAt:     u.CreatedAt,
	}
	if res.Progression == nil {
		res.Progression = map[string]any{}
	}
	if u.LodestoneID != "" {
		jobs := u.Jobs
		if jobs == nil {
			jobs = map[string]int{}
		}
		res.Lodestone = &LodestoneResponse{
			LodestoneID:  u.LodestoneID,
			VerifiedAt:   u.LodestoneVerifiedAt,
			Jobs:         jobs,
			GrandCompany: u.GrandCompany,
			FreeCompany:  u.FreeCompany,
		}
	}
	return res
}

func NewUserProfileResponses(users []user.User) []UserProfileResponse {
	out := make([]UserProfileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserProfileResponse(u))
	}
	return out
}

type AuthResponse struct {
	User         UserProfileResponse `json:"user"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
