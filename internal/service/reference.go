package service

import (
	"context"

	"github.com/hellforge/tradepost/internal/domain/model"
)

// ReferenceRepo is the persistence surface for the read-only reference data.
// Implemented by data.ReferenceRepo.
type ReferenceRepo interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, opts model.ReferenceListOptions) ([]*model.Item, error)
	ImportItems(ctx context.Context, items []*model.Item) (int, error)
	GetRuneword(ctx context.Context, id string) (*model.Runeword, error)
	ListRunewords(ctx context.Context, opts model.ReferenceListOptions) ([]*model.Runeword, error)
	ImportRunewords(ctx context.Context, runewords []*model.Runeword) (int, error)
}

// ReferenceService serves the item and runeword reference database. Reads are
// public; imports happen through the admin CLI only.
type ReferenceService struct {
	repo ReferenceRepo
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(repo ReferenceRepo) *ReferenceService {
	return &ReferenceService{repo: repo}
}

// GetItem retrieves a reference item by ID.
func (s *ReferenceService) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems retrieves reference items with filters and paging.
func (s *ReferenceService) ListItems(ctx context.Context, opts model.ReferenceListOptions) ([]*model.Item, error) {
	return s.repo.ListItems(ctx, opts)
}

// ImportItems bulk-loads item records, returning the number written.
func (s *ReferenceService) ImportItems(ctx context.Context, items []*model.Item) (int, error) {
	return s.repo.ImportItems(ctx, items)
}

// GetRuneword retrieves a runeword recipe by ID.
func (s *ReferenceService) GetRuneword(ctx context.Context, id string) (*model.Runeword, error) {
	return s.repo.GetRuneword(ctx, id)
}

// ListRunewords retrieves runeword recipes with filters and paging.
func (s *ReferenceService) ListRunewords(ctx context.Context, opts model.ReferenceListOptions) ([]*model.Runeword, error) {
	return s.repo.ListRunewords(ctx, opts)
}

// ImportRunewords bulk-loads runeword records, returning the number written.
func (s *ReferenceService) ImportRunewords(ctx context.Context, runewords []*model.Runeword) (int, error) {
	return s.repo.ImportRunewords(ctx, runewords)
}
