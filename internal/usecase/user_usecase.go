package usecase

import (
	"context"

	"raid-recruit/internal/domain/user"
	ucuser "raid-recruit/internal/usecase/user"

	"github.com/google/uuid"
)

type UserUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (user.User, error)
	GetPublic(ctx context.Context, userID uuid.UUID) (user.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (user.User, error)
	SearchPlayers(ctx context.Context, requester uuid.UUID, f user.PlayerFilter) ([]user.User, error)
	LinkLodestone(ctx context.Context, userID uuid.UUID, lodestoneID string) (user.User, error)
	VerifyLodestone(ctx context.Context, userID uuid.UUID) (user.User, error)
	UnlinkLodestone(ctx context.Context, userID uuid.UUID) (user.User, error)
}

type User struct {
	svc *ucuser.Service
}

func NewUserUsecase(users user.Repository, lookup ucuser.CharacterLookup) *User {
	return &User{svc: ucuser.NewService(users, lookup)}
}

func (u *User) GetProfile(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return u.svc.GetProfile(ctx, userID)
}

func (u *User) GetPublic(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return u.svc.GetPublic(ctx, userID)
}

func (u *User) UpdateProfile(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (user.User, error) {
	return u.svc.UpdateProfile(ctx, userID, in)
}

func (u *User) SearchPlayers(ctx context.Context, requester uuid.UUID, f user.PlayerFilter) ([]user.User, error) {
	return u.svc.SearchPlayers(ctx, requester, f)
}

func (u *User) LinkLodestone(ctx context.Context, userID uuid.UUID, lodestoneID string) (user.User, error) {
	return u.svc.LinkLodestone(ctx, userID, lodestoneID)
}

func (u *User) VerifyLodestone(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return u.svc.VerifyLodestone(ctx, userID)
}

func (u *User) UnlinkLodestone(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return u.svc.UnlinkLodestone(ctx, userID)
}
