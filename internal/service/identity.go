package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
)

// Owner identifies who a location write belongs to. HelperID is set only for
// the helper branch.
type Owner struct {
	Role     string
	UserID   uint
	HelperID *uint
}

func (o Owner) IsAdmin() bool { return o.Role == domain.RoleAdmin }

// Owns reports whether loc belongs to o.
func (o Owner) Owns(loc *models.Location) bool {
	if loc.HelperID != nil {
		return o.HelperID != nil && *o.HelperID == *loc.HelperID
	}
	return loc.UserID != nil && *loc.UserID == o.UserID
}

// HelperDirectory answers referential checks and profile lookups for helpers.
type HelperDirectory interface {
	Exists(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*models.Helper, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Helper, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Identity resolves an authenticated user id into a location owner.
type Identity interface {
	ResolveRole(ctx context.Context, ownerID uint) (Owner, error)
}

type IdentityResolver struct {
	users   UserDirectory
	helpers HelperDirectory
}

func NewIdentityResolver(users UserDirectory, helpers HelperDirectory) *IdentityResolver {
	return &IdentityResolver{users: users, helpers: helpers}
}

// ResolveRole looks up the user and, for helpers, their helper profile.
// A helper account without a profile is a referential error.
func (r *IdentityResolver) ResolveRole(ctx context.Context, ownerID uint) (Owner, error) {
	u, err := r.users.GetByID(ctx, ownerID)
	if err != nil {
		return Owner{}, err
	}
	owner := Owner{Role: u.Role, UserID: u.ID}
	if u.Role != domain.RoleHelper {
		return owner, nil
	}
	h, err := r.helpers.FindByUserID(ctx, u.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return Owner{}, fmt.Errorf("helper profile for user %d: %w", u.ID, domain.ErrReferentialIntegrity)
	}
	if err != nil {
		return Owner{}, err
	}
	owner.HelperID = &h.ID
	return owner, nil
}
