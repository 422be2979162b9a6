package service

import (
	"context"
	"log/slog"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// PriceCheckRepo is the persistence surface the service needs.
// Implemented by data.PriceCheckRepo.
type PriceCheckRepo interface {
	Create(ctx context.Context, requesterID string, req *model.CreatePriceCheckRequest) (*model.PriceCheck, error)
	GetByID(ctx context.Context, id string) (*model.PriceCheck, error)
	List(ctx context.Context, opts model.PriceChecksListOptions) ([]*model.PriceCheck, error)
	SetStatus(ctx context.Context, id string, status model.PriceCheckStatus) (*model.PriceCheck, error)
	Delete(ctx context.Context, id string) (bool, error)
	CreateEstimate(ctx context.Context, priceCheckID, authorID string, req *model.CreatePriceEstimateRequest) (*model.PriceEstimate, error)
	ListEstimates(ctx context.Context, priceCheckID string) ([]*model.PriceEstimate, error)
}

// PriceCheckService enforces ownership and lifecycle rules for price checks.
type PriceCheckService struct {
	repo   PriceCheckRepo
	feed   ports.ChangeFeed
	logger *slog.Logger
}

// NewPriceCheckService constructs a PriceCheckService. feed may be nil.
func NewPriceCheckService(repo PriceCheckRepo, feed ports.ChangeFeed, logger *slog.Logger) *PriceCheckService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceCheckService{repo: repo, feed: feed, logger: logger.With("component", "price_checks")}
}

// Create opens a price check for the session user.
func (s *PriceCheckService) Create(
	ctx context.Context,
	sess *domainauth.Session,
	req *model.CreatePriceCheckRequest,
) (*model.PriceCheck, error) {
	check, err := s.repo.Create(ctx, sess.UserID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "insert", check.ID)
	return check, nil
}

// Get retrieves a price check by ID.
func (s *PriceCheckService) Get(ctx context.Context, id string) (*model.PriceCheck, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves price checks with filters and paging.
func (s *PriceCheckService) List(
	ctx context.Context,
	opts model.PriceChecksListOptions,
) ([]*model.PriceCheck, error) {
	return s.repo.List(ctx, opts)
}

// Close marks a price check closed. Only the requester or a moderator may close it.
func (s *PriceCheckService) Close(
	ctx context.Context,
	sess *domainauth.Session,
	id string,
) (*model.PriceCheck, error) {
	check, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != check.RequesterID && !sess.IsModerator() {
		return nil, apperrors.Forbidden("you do not own this price check")
	}

	closed, err := s.repo.SetStatus(ctx, id, model.PriceCheckStatusClosed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "update", id)
	return closed, nil
}

// Delete removes a price check. Moderator-only; regular users close instead.
func (s *PriceCheckService) Delete(ctx context.Context, sess *domainauth.Session, id string) error {
	if !sess.IsModerator() {
		return apperrors.Forbidden("moderator role required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFoundf("price check %s not found", id)
	}
	s.publish(ctx, "delete", id)
	return nil
}

// Estimate records a community estimate on an open price check. Requesters
// cannot estimate their own checks.
func (s *PriceCheckService) Estimate(
	ctx context.Context,
	sess *domainauth.Session,
	priceCheckID string,
	req *model.CreatePriceEstimateRequest,
) (*model.PriceEstimate, error) {
	check, err := s.repo.GetByID(ctx, priceCheckID)
	if err != nil {
		return nil, err
	}
	if check.RequesterID == sess.UserID {
		return nil, apperrors.Validation("cannot estimate your own price check")
	}
	if check.Status != model.PriceCheckStatusOpen {
		return nil, apperrors.Validation("price check is closed")
	}

	estimate, err := s.repo.CreateEstimate(ctx, priceCheckID, sess.UserID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "update", priceCheckID)
	return estimate, nil
}

// ListEstimates returns the estimates on a price check.
func (s *PriceCheckService) ListEstimates(ctx context.Context, priceCheckID string) ([]*model.PriceEstimate, error) {
	if _, err := s.repo.GetByID(ctx, priceCheckID); err != nil {
		return nil, err
	}
	return s.repo.ListEstimates(ctx, priceCheckID)
}

func (s *PriceCheckService) publish(ctx context.Context, op, id string) {
	if s.feed == nil {
		return
	}
	change := ports.Change{Table: "price_checks", Op: op, Payload: map[string]any{"id": id}}
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "change feed publish failed", "op", op, "err", err)
	}
}
