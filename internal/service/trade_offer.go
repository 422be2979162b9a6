package service

import (
	"context"
	"log/slog"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// TradeOfferRepo is the persistence surface the service needs.
// Implemented by data.TradeOfferRepo.
type TradeOfferRepo interface {
	Create(ctx context.Context, ownerID string, req *model.CreateTradeOfferRequest) (*model.TradeOffer, error)
	GetByID(ctx context.Context, id string) (*model.TradeOffer, error)
	List(ctx context.Context, opts model.TradeOffersListOptions) ([]*model.TradeOffer, error)
	Update(ctx context.Context, id string, req model.UpdateTradeOfferRequest) (*model.TradeOffer, error)
	Delete(ctx context.Context, id string) (bool, error)
	CreateCounterOffer(ctx context.Context, offerID, authorID string, req *model.CreateCounterOfferRequest) (*model.CounterOffer, error)
	GetCounterOffer(ctx context.Context, id string) (*model.CounterOffer, error)
	ListCounterOffers(ctx context.Context, offerID string) ([]*model.CounterOffer, error)
	UpdateCounterOfferStatus(ctx context.Context, id string, status model.CounterOfferStatus) (*model.CounterOffer, error)
}

// TradeOfferService enforces ownership and lifecycle rules for trade offers.
// Moderators (and admins) may modify or remove any offer; owners only their own.
type TradeOfferService struct {
	repo   TradeOfferRepo
	feed   ports.ChangeFeed
	logger *slog.Logger
}

// NewTradeOfferService constructs a TradeOfferService. feed may be nil.
func NewTradeOfferService(repo TradeOfferRepo, feed ports.ChangeFeed, logger *slog.Logger) *TradeOfferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeOfferService{repo: repo, feed: feed, logger: logger.With("component", "trade_offers")}
}

// Create opens a new trade offer owned by the session user.
func (s *TradeOfferService) Create(
	ctx context.Context,
	sess *domainauth.Session,
	req *model.CreateTradeOfferRequest,
) (*model.TradeOffer, error) {
	offer, err := s.repo.Create(ctx, sess.UserID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "trade_offers", "insert", offer.ID)
	return offer, nil
}

// Get retrieves a trade offer by ID.
func (s *TradeOfferService) Get(ctx context.Context, id string) (*model.TradeOffer, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves trade offers with filters and paging.
func (s *TradeOfferService) List(
	ctx context.Context,
	opts model.TradeOffersListOptions,
) ([]*model.TradeOffer, error) {
	return s.repo.List(ctx, opts)
}

// Update applies changes to an offer after checking ownership.
func (s *TradeOfferService) Update(
	ctx context.Context,
	sess *domainauth.Session,
	id string,
	req model.UpdateTradeOfferRequest,
) (*model.TradeOffer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrModerator(sess, offer.OwnerID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "trade_offers", "update", id)
	return updated, nil
}

// Delete removes an offer after checking ownership.
func (s *TradeOfferService) Delete(ctx context.Context, sess *domainauth.Session, id string) error {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrModerator(sess, offer.OwnerID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFoundf("trade offer %s not found", id)
	}
	s.publish(ctx, "trade_offers", "delete", id)
	return nil
}

// Counter submits a counter-offer on an open offer. Owners cannot counter
// their own offers.
func (s *TradeOfferService) Counter(
	ctx context.Context,
	sess *domainauth.Session,
	offerID string,
	req *model.CreateCounterOfferRequest,
) (*model.CounterOffer, error) {
	offer, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID == sess.UserID {
		return nil, apperrors.Validation("cannot counter your own offer")
	}
	if offer.Status != model.TradeOfferStatusOpen {
		return nil, apperrors.Validation("offer is no longer accepting counter-offers")
	}

	counter, err := s.repo.CreateCounterOffer(ctx, offerID, sess.UserID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "counter_offers", "insert", counter.ID)
	return counter, nil
}

// ListCounters returns the counter-offers on an offer.
func (s *TradeOfferService) ListCounters(ctx context.Context, offerID string) ([]*model.CounterOffer, error) {
	if _, err := s.repo.GetByID(ctx, offerID); err != nil {
		return nil, err
	}
	return s.repo.ListCounterOffers(ctx, offerID)
}

// RespondToCounter lets the offer owner accept or decline a counter-offer.
// Accepting moves the parent offer to pending.
func (s *TradeOfferService) RespondToCounter(
	ctx context.Context,
	sess *domainauth.Session,
	counterID string,
	accept bool,
) (*model.CounterOffer, error) {
	counter, err := s.repo.GetCounterOffer(ctx, counterID)
	if err != nil {
		return nil, err
	}
	offer, err := s.repo.GetByID(ctx, counter.OfferID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrModerator(sess, offer.OwnerID); err != nil {
		return nil, err
	}
	if counter.Status != model.CounterOfferStatusPending {
		return nil, apperrors.Validation("counter-offer has already been resolved")
	}

	status := model.CounterOfferStatusDeclined
	if accept {
		status = model.CounterOfferStatusAccepted
	}
	updated, err := s.repo.UpdateCounterOfferStatus(ctx, counterID, status)
	if err != nil {
		return nil, err
	}

	if accept {
		pending := model.TradeOfferStatusPending
		if _, updateErr := s.repo.Update(ctx, offer.ID, model.UpdateTradeOfferRequest{Status: &pending}); updateErr != nil {
			s.logger.WarnContext(ctx, "failed to move offer to pending after accept",
				"offer_id", offer.ID, "err", updateErr)
		}
		s.publish(ctx, "trade_offers", "update", offer.ID)
	}
	s.publish(ctx, "counter_offers", "update", counterID)
	return updated, nil
}

func (s *TradeOfferService) requireOwnerOrModerator(sess *domainauth.Session, ownerID string) error {
	if sess == nil {
		return apperrors.Forbidden("authentication required")
	}
	if sess.UserID == ownerID || sess.IsModerator() {
		return nil
	}
	return apperrors.Forbidden("you do not own this offer")
}

// publish emits a change-feed event. Failures are logged, never propagated:
// the write already committed.
func (s *TradeOfferService) publish(ctx context.Context, table, op, id string) {
	if s.feed == nil {
		return
	}
	change := ports.Change{Table: table, Op: op, Payload: map[string]any{"id": id}}
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "change feed publish failed",
			"table", table, "op", op, "err", err)
	}
}
