package service

import (
	"context"

	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
)

// CategoryCache is satisfied by the Redis category list cache.
type CategoryCache interface {
	Get(ctx context.Context) ([]model.Category, bool, error)
	Set(ctx context.Context, list []model.Category) error
}

// DefaultCategories is the reference data seeded at startup.
var DefaultCategories = []model.Category{
	{Name: "Music Production", Description: "Producers, beat makers and arrangers", SortOrder: 1},
	{Name: "Session Musician", Description: "Studio and live session players", SortOrder: 2},
	{Name: "Live Performance", Description: "Gigs, support slots and residencies", SortOrder: 3},
	{Name: "Sound Engineering", Description: "Recording, live sound and monitor engineers", SortOrder: 4},
	{Name: "Mixing & Mastering", Description: "Post-production audio work", SortOrder: 5},
	{Name: "Songwriting", Description: "Toplines, lyrics and co-writes", SortOrder: 6},
	{Name: "Tour Crew", Description: "Backline, lighting, merch and tour management", SortOrder: 7},
	{Name: "Venue Staff", Description: "Front of house, bar and door staff", SortOrder: 8},
	{Name: "Marketing & Promotion", Description: "Campaigns, PR and social media", SortOrder: 9},
	{Name: "Visual & Video", Description: "Photography, music videos and artwork", SortOrder: 10},
}

type CategoryService struct {
	repo   *mysql.CategoryRepository
	cache  CategoryCache
	logger *zap.Logger
}

// NewCategoryService accepts a nil cache.
func NewCategoryService(repo *mysql.CategoryRepository, cache CategoryCache, logger *zap.Logger) *CategoryService {
	return &CategoryService{repo: repo, cache: cache, logger: logger}
}

func (s *CategoryService) Seed(ctx context.Context) error {
	list := make([]model.Category, len(DefaultCategories))
	copy(list, DefaultCategories)
	for i := range list {
		list[i].Active = true
	}
	if err := s.repo.Seed(ctx, list); err != nil {
		return apperr.RetrievalFailure("seed categories", err)
	}
	return nil
}

// List returns active categories, served from cache when possible.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	if s.cache != nil {
		list, hit, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("category cache read failed", zap.Error(err))
		} else if hit {
			return list, nil
		}
	}
	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, storeErr(err, "categories")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, list); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint64) (*model.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "category")
	}
	return c, nil
}
