package service

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/search"
	"Backstage_Jobs/internal/telemetry"
)

const (
	DefaultRecommendLimit = 10
	MaxRecommendLimit     = 50
	historySampleSize     = 20
)

// Preferences is what a user's application history says about them.
type Preferences struct {
	CategoryIDs   []uint64
	Genres        []string
	Skills        []string
	PaymentTypes  []string
	LocationTypes []string
}

func (p Preferences) Empty() bool {
	return len(p.CategoryIDs) == 0
}

type RecommendService struct {
	postings *mysql.PostingRepository
	apps     *mysql.ApplicationRepository
	logger   *zap.Logger
}

func NewRecommendService(postings *mysql.PostingRepository, apps *mysql.ApplicationRepository, logger *zap.Logger) *RecommendService {
	return &RecommendService{postings: postings, apps: apps, logger: logger}
}

func ClampRecommendLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecommendLimit
	}
	if limit > MaxRecommendLimit {
		return MaxRecommendLimit
	}
	return limit
}

// Recommend returns open postings in the categories the user has applied to,
// excluding their own. With no history it falls back to the newest open postings.
func (s *RecommendService) Recommend(ctx context.Context, userID uint64, limit int) ([]model.Posting, error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "RecommendService.Recommend")
	defer span.End()
	limit = ClampRecommendLimit(limit)
	span.SetAttributes(telemetry.Uint64("user.id", userID), telemetry.Int("limit", limit))

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "preferences")
		return nil, err
	}

	var list []model.Posting
	if prefs.Empty() {
		list, err = s.postings.ListOpenRecent(ctx, limit)
	} else {
		s.logger.Debug("recommendation profile",
			zap.Uint64("user_id", userID),
			zap.Uint64s("categories", prefs.CategoryIDs),
			zap.Strings("genres", prefs.Genres),
			zap.Strings("skills", prefs.Skills))
		list, err = s.postings.ListOpenInCategories(ctx, prefs.CategoryIDs, userID, limit)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recommend failed")
		return nil, apperr.RetrievalFailure("recommend postings", err)
	}
	if list == nil {
		list = []model.Posting{}
	}
	span.SetAttributes(telemetry.Int("result.count", len(list)))
	return list, nil
}

// Preferences samples the user's most recent applications in any status.
func (s *RecommendService) Preferences(ctx context.Context, userID uint64) (Preferences, error) {
	var prefs Preferences
	if userID == 0 {
		return prefs, nil
	}
	history, err := s.apps.RecentByApplicant(ctx, userID, historySampleSize)
	if err != nil {
		return prefs, apperr.RetrievalFailure("load application history", err)
	}
	if len(history) == 0 {
		return prefs, nil
	}
	ids := make([]uint64, 0, len(history))
	for _, a := range history {
		ids = append(ids, a.JobID)
	}
	postings, err := s.postings.FindByIDs(ctx, ids)
	if err != nil {
		return prefs, apperr.RetrievalFailure("load applied postings", err)
	}

	seen := make(map[uint64]struct{}, len(postings))
	var genres, skills, payments, locations []string
	for _, p := range postings {
		if _, ok := seen[p.CategoryID]; !ok {
			seen[p.CategoryID] = struct{}{}
			prefs.CategoryIDs = append(prefs.CategoryIDs, p.CategoryID)
		}
		genres = append(genres, p.RequiredGenres...)
		skills = append(skills, p.RequiredSkills...)
		payments = append(payments, p.PaymentType)
		locations = append(locations, p.LocationType)
	}
	prefs.Genres = search.CleanSet(genres)
	prefs.Skills = search.CleanSet(skills)
	prefs.PaymentTypes = search.CleanSet(payments)
	prefs.LocationTypes = search.CleanSet(locations)
	return prefs, nil
}
