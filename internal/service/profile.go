package service

import (
	"context"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// ProfileRepo is the persistence surface the service needs.
// Implemented by data.ProfileRepo.
type ProfileRepo interface {
	GetByIdentityID(ctx context.Context, identityID string) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	Update(ctx context.Context, identityID string, req model.UpdateProfileRequest) (*model.Profile, error)
}

// ProfileService serves public profiles and self-service profile edits.
type ProfileService struct {
	repo ProfileRepo
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo ProfileRepo) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetByUsername retrieves a public profile by username.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return s.repo.GetByUsername(ctx, username)
}

// GetOwn retrieves the session user's profile.
func (s *ProfileService) GetOwn(ctx context.Context, sess *domainauth.Session) (*model.Profile, error) {
	return s.repo.GetByIdentityID(ctx, sess.UserID)
}

// UpdateOwn applies profile edits for the session user. Users can only edit
// their own profile; there is no moderator override here.
func (s *ProfileService) UpdateOwn(
	ctx context.Context,
	sess *domainauth.Session,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	if sess == nil {
		return nil, apperrors.Forbidden("authentication required")
	}
	return s.repo.Update(ctx, sess.UserID, req)
}
