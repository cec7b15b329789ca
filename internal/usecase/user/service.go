package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"raid-recruit/internal/domain/game"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrLodestoneNotLinked = errors.New("no lodestone character linked")
	ErrLodestoneTaken     = errors.New("lodestone character already linked to another account")
	ErrLookupUnavailable  = errors.New("character lookup unavailable")
)

var lodestoneIDPattern = regexp.MustCompile(`^[0-9]{1,12}$`)

// CharacterLookup fetches public character data by Lodestone ID. It returns
// user.ErrCharacterNotFound when the page does not exist.
type CharacterLookup interface {
	Lookup(ctx context.Context, lodestoneID string) (user.LodestoneCharacter, error)
}

type UpdateProfileInput struct {
	CharacterName *string
	Server        *string
	DataCenter    *string
	Bio           *string
	Availability  []string
	Roles         []string
	Progression   map[string]any
}

type Service struct {
	users  user.Repository
	lookup CharacterLookup
	now    func() time.Time
}

func NewService(users user.Repository, lookup CharacterLookup) *Service {
	return &Service{users: users, lookup: lookup, now: time.Now}
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	return sanitizeUser(usr), nil
}

// GetPublic is the profile as other players see it: no email, no hash.
func (s *Service) GetPublic(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	usr = sanitizeUser(usr)
	usr.Email = ""
	return usr, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (user.User, error) {
	upd := user.ProfileUpdate{
		CharacterName: in.CharacterName,
		Server:        in.Server,
		Bio:           in.Bio,
		Availability:  cleanList(in.Availability),
		Progression:   in.Progression,
	}

	if in.Roles != nil {
		roles := make([]string, 0, len(in.Roles))
		for _, r := range cleanList(in.Roles) {
			canonical, ok := game.CanonicalRole(r)
			if !ok {
				return user.User{}, ErrInvalidInput
			}
			roles = append(roles, canonical)
		}
		upd.Roles = roles
	}

	if in.DataCenter != nil {
		dc := strings.TrimSpace(*in.DataCenter)
		if dc != "" {
			canonical, ok := game.CanonicalDataCenter(dc)
			if !ok {
				return user.User{}, ErrInvalidInput
			}
			dc = canonical
		}
		upd.DataCenter = &dc
	} else if in.Server != nil {
		if dc, ok := game.DataCenterForServer(*in.Server); ok {
			upd.DataCenter = &dc
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) SearchPlayers(ctx context.Context, requester uuid.UUID, f user.PlayerFilter) ([]user.User, error) {
	if role := strings.TrimSpace(f.Role); role != "" && !game.IsRole(role) {
		return nil, ErrInvalidInput
	}
	f.ExcludeID = requester
	players, err := s.users.SearchPlayers(ctx, f)
	if err != nil {
		return nil, ErrInternal
	}
	out := make([]user.User, 0, len(players))
	for _, p := range players {
		p = sanitizeUser(p)
		p.Email = ""
		out = append(out, p)
	}
	return out, nil
}

// LinkLodestone looks the character up and copies its public data onto the
// profile. The link is unverified until VerifyLodestone succeeds.
func (s *Service) LinkLodestone(ctx context.Context, userID uuid.UUID, lodestoneID string) (user.User, error) {
	lodestoneID = strings.TrimSpace(lodestoneID)
	if !lodestoneIDPattern.MatchString(lodestoneID) {
		return user.User{}, ErrInvalidInput
	}
	if _, err := s.get(ctx, userID); err != nil {
		return user.User{}, err
	}

	c, err := s.fetch(ctx, lodestoneID)
	if err != nil {
		return user.User{}, err
	}
	c.VerifiedAt = time.Time{}
	if err := s.store(ctx, userID, c); err != nil {
		return user.User{}, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) VerifyLodestone(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if err := s.RefreshCharacter(ctx, usr); err != nil {
		return user.User{}, err
	}
	return s.GetProfile(ctx, userID)
}

// RefreshCharacter re-fetches a linked character and stamps the
// verification time.
func (s *Service) RefreshCharacter(ctx context.Context, usr user.User) error {
	if strings.TrimSpace(usr.LodestoneID) == "" {
		return ErrLodestoneNotLinked
	}
	c, err := s.fetch(ctx, usr.LodestoneID)
	if err != nil {
		return err
	}
	c.VerifiedAt = s.now().UTC()
	return s.store(ctx, usr.ID, c)
}

func (s *Service) UnlinkLodestone(ctx context.Context, userID uuid.UUID) (user.User, error) {
	if err := s.users.ClearLodestone(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) fetch(ctx context.Context, lodestoneID string) (user.LodestoneCharacter, error) {
	if s.lookup == nil {
		return user.LodestoneCharacter{}, ErrLookupUnavailable
	}
	c, err := s.lookup.Lookup(ctx, lodestoneID)
	if err != nil {
		if errors.Is(err, user.ErrCharacterNotFound) {
			return user.LodestoneCharacter{}, user.ErrCharacterNotFound
		}
		return user.LodestoneCharacter{}, errors.Join(ErrLookupUnavailable, err)
	}
	c.LodestoneID = lodestoneID
	if c.DataCenter == "" {
		c.DataCenter, _ = game.DataCenterForServer(c.Server)
	}
	return c, nil
}

func (s *Service) store(ctx context.Context, userID uuid.UUID, c user.LodestoneCharacter) error {
	if err := s.users.SetLodestone(ctx, userID, c); err != nil {
		switch {
		case errors.Is(err, user.ErrAlreadyExists):
			return ErrLodestoneTaken
		case errors.Is(err, user.ErrNotFound):
			return user.ErrNotFound
		default:
			return ErrInternal
		}
	}
	return nil
}

func (s *Service) get(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return usr, nil
}

func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
