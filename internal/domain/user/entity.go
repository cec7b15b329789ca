package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string

	CharacterName string
	Server        string
	DataCenter    string
	Bio           string
	Availability  []string
	Roles         []string
	Progression   map[string]any

	LodestoneID         string
	LodestoneVerifiedAt *time.Time
	Jobs                map[string]int
	GrandCompany        string
	FreeCompany         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate is a partial profile edit; nil fields are left unchanged.
type ProfileUpdate struct {
	CharacterName *string
	Server        *string
	DataCenter    *string
	Bio           *string
	Availability  []string
	Roles         []string
	Progression   map[string]any
}

// LodestoneCharacter is the subset of public character data copied onto a
// profile when a character is linked or re-verified.
type LodestoneCharacter struct {
	LodestoneID   string
	CharacterName string
	Server        string
	DataCenter    string
	Jobs          map[string]int
	GrandCompany  string
	FreeCompany   string
	VerifiedAt    time.Time
}

type PlayerFilter struct {
	DataCenter string
	Server     string
	Role       string
	ExcludeID  uuid.UUID
	Limit      int
}
