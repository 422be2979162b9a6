package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/mocks"
)

// fakeTradeOfferRepo is a minimal in-memory TradeOfferRepo.
type fakeTradeOfferRepo struct {
	offers   map[string]*model.TradeOffer
	counters map[string]*model.CounterOffer
	nextID   int
}

func newFakeTradeOfferRepo() *fakeTradeOfferRepo {
	return &fakeTradeOfferRepo{
		offers:   make(map[string]*model.TradeOffer),
		counters: make(map[string]*model.CounterOffer),
	}
}

func (f *fakeTradeOfferRepo) id() string {
	f.nextID++
	return string(rune('a' + f.nextID - 1))
}

func (f *fakeTradeOfferRepo) Create(_ context.Context, ownerID string, req *model.CreateTradeOfferRequest) (*model.TradeOffer, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid trade offer")
	}
	offer := &model.TradeOffer{
		ID:       f.id(),
		OwnerID:  ownerID,
		Game:     req.Game,
		Offering: req.Offering,
		Wanting:  req.Wanting,
		Note:     req.Note,
		Status:   model.TradeOfferStatusOpen,
	}
	f.offers[offer.ID] = offer
	return offer, nil
}

func (f *fakeTradeOfferRepo) GetByID(_ context.Context, id string) (*model.TradeOffer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, apperrors.NotFoundf("trade offer %s not found", id)
	}
	cp := *offer
	return &cp, nil
}

func (f *fakeTradeOfferRepo) List(_ context.Context, _ model.TradeOffersListOptions) ([]*model.TradeOffer, error) {
	out := make([]*model.TradeOffer, 0, len(f.offers))
	for _, o := range f.offers {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTradeOfferRepo) Update(_ context.Context, id string, req model.UpdateTradeOfferRequest) (*model.TradeOffer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, apperrors.NotFoundf("trade offer %s not found", id)
	}
	if req.Offering != nil {
		offer.Offering = *req.Offering
	}
	if req.Wanting != nil {
		offer.Wanting = *req.Wanting
	}
	if req.Status != nil {
		offer.Status = *req.Status
	}
	cp := *offer
	return &cp, nil
}

func (f *fakeTradeOfferRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.offers[id]; !ok {
		return false, nil
	}
	delete(f.offers, id)
	return true, nil
}

func (f *fakeTradeOfferRepo) CreateCounterOffer(_ context.Context, offerID, authorID string, req *model.CreateCounterOfferRequest) (*model.CounterOffer, error) {
	counter := &model.CounterOffer{
		ID:       "c" + f.id(),
		OfferID:  offerID,
		AuthorID: authorID,
		Offering: req.Offering,
		Note:     req.Note,
		Status:   model.CounterOfferStatusPending,
	}
	f.counters[counter.ID] = counter
	return counter, nil
}

func (f *fakeTradeOfferRepo) GetCounterOffer(_ context.Context, id string) (*model.CounterOffer, error) {
	counter, ok := f.counters[id]
	if !ok {
		return nil, apperrors.NotFoundf("counter-offer %s not found", id)
	}
	cp := *counter
	return &cp, nil
}

func (f *fakeTradeOfferRepo) ListCounterOffers(_ context.Context, offerID string) ([]*model.CounterOffer, error) {
	var out []*model.CounterOffer
	for _, c := range f.counters {
		if c.OfferID == offerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTradeOfferRepo) UpdateCounterOfferStatus(_ context.Context, id string, status model.CounterOfferStatus) (*model.CounterOffer, error) {
	counter, ok := f.counters[id]
	if !ok {
		return nil, apperrors.NotFoundf("counter-offer %s not found", id)
	}
	counter.Status = status
	cp := *counter
	return &cp, nil
}

func userSession(id string, role domainauth.Role) *domainauth.Session {
	return &domainauth.Session{ID: "sess-" + id, UserID: id, Role: role}
}

func TestTradeOfferService_CreateAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	feed := mocks.NewMockChangeFeed(ctrl)
	feed.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	svc := NewTradeOfferService(newFakeTradeOfferRepo(), feed, nil)
	sess := userSession("u1", domainauth.RoleUser)

	offer, err := svc.Create(context.Background(), sess, &model.CreateTradeOfferRequest{
		Game:     model.GameResurrected,
		Offering: "Harlequin Crest",
		Wanting:  "2x Ist",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", offer.OwnerID)
	assert.Equal(t, model.TradeOfferStatusOpen, offer.Status)

	got, err := svc.Get(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, got.ID)
}

func TestTradeOfferService_UpdateRequiresOwnership(t *testing.T) {
	repo := newFakeTradeOfferRepo()
	svc := NewTradeOfferService(repo, nil, nil)
	ctx := context.Background()

	owner := userSession("owner", domainauth.RoleUser)
	offer, err := svc.Create(ctx, owner, &model.CreateTradeOfferRequest{
		Game: model.GameClassic, Offering: "SoJ", Wanting: "40 Pgems",
	})
	require.NoError(t, err)

	// A stranger cannot update.
	newOffering := "Stone of Jordan"
	_, err = svc.Update(ctx, userSession("stranger", domainauth.RoleUser), offer.ID,
		model.UpdateTradeOfferRequest{Offering: &newOffering})
	assert.True(t, apperrors.IsForbidden(err))

	// A moderator can.
	updated, err := svc.Update(ctx, userSession("mod", domainauth.RoleModerator), offer.ID,
		model.UpdateTradeOfferRequest{Offering: &newOffering})
	require.NoError(t, err)
	assert.Equal(t, "Stone of Jordan", updated.Offering)

	// The owner can.
	cancelled := model.TradeOfferStatusCancelled
	updated, err = svc.Update(ctx, owner, offer.ID,
		model.UpdateTradeOfferRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, model.TradeOfferStatusCancelled, updated.Status)
}

func TestTradeOfferService_CounterRules(t *testing.T) {
	repo := newFakeTradeOfferRepo()
	svc := NewTradeOfferService(repo, nil, nil)
	ctx := context.Background()

	owner := userSession("owner", domainauth.RoleUser)
	offer, err := svc.Create(ctx, owner, &model.CreateTradeOfferRequest{
		Game: model.GameResurrected, Offering: "Shako", Wanting: "Um Um",
	})
	require.NoError(t, err)

	// Owner cannot counter own offer.
	_, err = svc.Counter(ctx, owner, offer.ID, &model.CreateCounterOfferRequest{Offering: "Ist"})
	assert.True(t, apperrors.IsValidation(err))

	// Another user can.
	counter, err := svc.Counter(ctx, userSession("u2", domainauth.RoleUser), offer.ID,
		&model.CreateCounterOfferRequest{Offering: "Ist"})
	require.NoError(t, err)
	assert.Equal(t, model.CounterOfferStatusPending, counter.Status)

	// Accepting moves the offer to pending.
	accepted, err := svc.RespondToCounter(ctx, owner, counter.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.CounterOfferStatusAccepted, accepted.Status)

	offerAfter, err := svc.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TradeOfferStatusPending, offerAfter.Status)

	// No countering once the offer left the open state.
	_, err = svc.Counter(ctx, userSession("u3", domainauth.RoleUser), offer.ID,
		&model.CreateCounterOfferRequest{Offering: "Vex"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTradeOfferService_DeleteByModerator(t *testing.T) {
	repo := newFakeTradeOfferRepo()
	svc := NewTradeOfferService(repo, nil, nil)
	ctx := context.Background()

	offer, err := svc.Create(ctx, userSession("owner", domainauth.RoleUser),
		&model.CreateTradeOfferRequest{Game: model.GameClassic, Offering: "Occy", Wanting: "Pul"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userSession("mod", domainauth.RoleModerator), offer.ID))
	_, err = svc.Get(ctx, offer.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTradeOfferService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	feed := mocks.NewMockChangeFeed(ctrl)
	feed.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(assert.AnError)

	svc := NewTradeOfferService(newFakeTradeOfferRepo(), feed, nil)

	offer, err := svc.Create(context.Background(), userSession("u1", domainauth.RoleUser),
		&model.CreateTradeOfferRequest{Game: model.GameResurrected, Offering: "Jah", Wanting: "Ber"})
	require.NoError(t, err)
	assert.NotEmpty(t, offer.ID)
}
