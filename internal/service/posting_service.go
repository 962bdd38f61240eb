package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/search"
	"Backstage_Jobs/internal/telemetry"
)

const defaultCurrency = "USD"

// ViewSink receives view events. Implementations must not block.
type ViewSink interface {
	TrackView(jobID uint64, viewerID *uint64)
}

// PostingInput carries the editable attributes of a posting. On update a nil
// field leaves the stored value untouched.
type PostingInput struct {
	CategoryID         *uint64    `json:"category_id"`
	PosterType         *string    `json:"poster_type"`
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	JobType            *string    `json:"job_type"`
	PaymentType        *string    `json:"payment_type"`
	PaymentAmount      *float64   `json:"payment_amount"`
	PaymentCurrency    *string    `json:"payment_currency"`
	LocationType       *string    `json:"location_type"`
	City               *string    `json:"city"`
	State              *string    `json:"state"`
	Country            *string    `json:"country"`
	RequiredSkills     []string   `json:"required_skills"`
	RequiredGenres     []string   `json:"required_genres"`
	RequiredExperience *string    `json:"required_experience"`
	InstrumentsNeeded  []string   `json:"instruments_needed"`
	EventDate          *time.Time `json:"event_date"`
	Deadline           *time.Time `json:"deadline"`
	ExpiresAt          *time.Time `json:"expires_at"`
	Status             *string    `json:"status"`
}

var (
	jobTypes      = setOf(model.JobTypeJob, model.JobTypeCollaboration)
	paymentTypes  = setOf(model.PaymentPaid, model.PaymentRevenueShare, model.PaymentUnpaid, model.PaymentTrade)
	locationTypes = setOf(model.LocationRemote, model.LocationHybrid, model.LocationInPerson)
	experience    = setOf(model.ExperienceEntry, model.ExperienceIntermediate, model.ExperienceProfessional)
	posterTypes   = setOf(model.AccountArtist, model.AccountVenue, model.AccountOther)
)

// statusMoves lists the allowed forward transitions of a posting.
var statusMoves = map[string]map[string]struct{}{
	model.PostingStatusOpen: setOf(model.PostingStatusClosed, model.PostingStatusCancelled),
}

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

type PostingService struct {
	repo       *mysql.PostingRepository
	categories *mysql.CategoryRepository
	views      ViewSink
	logger     *zap.Logger
	now        func() time.Time
}

// NewPostingService accepts a nil ViewSink, in which case views are not tracked.
func NewPostingService(repo *mysql.PostingRepository, categories *mysql.CategoryRepository, views ViewSink, logger *zap.Logger) *PostingService {
	return &PostingService{
		repo:       repo,
		categories: categories,
		views:      views,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostingService) Create(ctx context.Context, ownerID uint64, accountType string, in PostingInput) (*model.Posting, error) {
	if ownerID == 0 {
		return nil, apperr.Unauthorized("login required", nil)
	}
	p := &model.Posting{
		PostedBy:        ownerID,
		PosterType:      accountType,
		PaymentCurrency: defaultCurrency,
		Status:          model.PostingStatusOpen,
	}
	if p.PosterType == "" {
		p.PosterType = model.AccountOther
	}
	in.Status = nil
	applyInput(p, in)
	if err := s.validate(ctx, p, true, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.RetrievalFailure("create posting", err)
	}
	s.logger.Info("posting created", zap.Uint64("job_id", p.ID), zap.Uint64("owner_id", ownerID))
	return p, nil
}

// Get returns a posting in any status and records a view.
func (s *PostingService) Get(ctx context.Context, id uint64, viewerID *uint64) (*model.Posting, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if s.views != nil {
		s.views.TrackView(id, viewerID)
	}
	return p, nil
}

func (s *PostingService) Update(ctx context.Context, id, callerID uint64, in PostingInput) (*model.Posting, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if err := requireActor(p.PostedBy, callerID, "only the owner can edit this posting"); err != nil {
		return nil, err
	}
	from := p.Status
	if in.Status != nil {
		to := strings.TrimSpace(*in.Status)
		if to != from {
			if _, ok := statusMoves[from][to]; !ok {
				return nil, apperr.ValidationFailure("cannot move posting from "+from+" to "+to, nil)
			}
		}
		in.Status = &to
	}
	applyInput(p, in)
	if err := s.validate(ctx, p, in.ExpiresAt != nil, in.CategoryID != nil); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, from); err != nil {
		if errors.Is(err, mysql.ErrStaleState) {
			return nil, apperr.ValidationFailure("posting changed status concurrently", err)
		}
		return nil, apperr.RetrievalFailure("update posting", err)
	}
	return p, nil
}

// Delete cancels the posting. Cancelling twice is a no-op.
func (s *PostingService) Delete(ctx context.Context, id, callerID uint64) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, "posting")
	}
	if err := requireActor(p.PostedBy, callerID, "only the owner can delete this posting"); err != nil {
		return err
	}
	changed, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return apperr.RetrievalFailure("cancel posting", err)
	}
	if changed {
		s.logger.Info("posting cancelled", zap.Uint64("job_id", id))
	}
	return nil
}

func (s *PostingService) Search(ctx context.Context, f search.Filter) (search.Page[model.Posting], error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "PostingService.Search")
	defer span.End()

	f = f.Normalize()
	list, total, err := s.repo.Search(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.Error("posting search failed", zap.Error(err))
		return search.Page[model.Posting]{}, apperr.RetrievalFailure("search postings", err)
	}
	span.SetAttributes(
		telemetry.String("search.query", f.Query),
		telemetry.String("search.sort_by", f.SortBy),
		telemetry.Int("search.total", int(total)),
		telemetry.Int("search.page", f.Page),
	)
	return search.NewPage(list, total, f.Page, f.PerPage), nil
}

// ListMine pages through the owner's postings in any status.
func (s *PostingService) ListMine(ctx context.Context, ownerID uint64, page, perPage int) (search.Page[model.Posting], error) {
	f := search.Filter{Page: page, PerPage: perPage}.Normalize()
	list, total, err := s.repo.ListByOwner(ctx, ownerID, f.Offset(), f.PerPage)
	if err != nil {
		return search.Page[model.Posting]{}, apperr.RetrievalFailure("list postings", err)
	}
	return search.NewPage(list, total, f.Page, f.PerPage), nil
}

func applyInput(p *model.Posting, in PostingInput) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	setStr(&p.PosterType, in.PosterType)
	setStr(&p.Title, in.Title)
	setStr(&p.Description, in.Description)
	setStr(&p.JobType, in.JobType)
	setStr(&p.PaymentType, in.PaymentType)
	if in.PaymentAmount != nil {
		p.PaymentAmount = *in.PaymentAmount
	}
	setStr(&p.PaymentCurrency, in.PaymentCurrency)
	p.PaymentCurrency = strings.ToUpper(p.PaymentCurrency)
	if p.PaymentCurrency == "" {
		p.PaymentCurrency = defaultCurrency
	}
	setStr(&p.LocationType, in.LocationType)
	setStr(&p.City, in.City)
	setStr(&p.State, in.State)
	setStr(&p.Country, in.Country)
	setStr(&p.RequiredExperience, in.RequiredExperience)
	if in.RequiredSkills != nil {
		p.RequiredSkills = tagSet(in.RequiredSkills)
	}
	if in.RequiredGenres != nil {
		p.RequiredGenres = tagSet(in.RequiredGenres)
	}
	if in.InstrumentsNeeded != nil {
		p.InstrumentsNeeded = tagSet(in.InstrumentsNeeded)
	}
	if in.EventDate != nil {
		p.EventDate = utc(in.EventDate)
	}
	if in.Deadline != nil {
		p.Deadline = utc(in.Deadline)
	}
	if in.ExpiresAt != nil {
		p.ExpiresAt = utc(in.ExpiresAt)
	}
	setStr(&p.Status, in.Status)
	if p.RequiredSkills == nil {
		p.RequiredSkills = datatypes.JSONSlice[string]{}
	}
	if p.RequiredGenres == nil {
		p.RequiredGenres = datatypes.JSONSlice[string]{}
	}
	if p.InstrumentsNeeded == nil {
		p.InstrumentsNeeded = datatypes.JSONSlice[string]{}
	}
}

func tagSet(in []string) datatypes.JSONSlice[string] {
	out := search.CleanSet(in)
	if out == nil {
		return datatypes.JSONSlice[string]{}
	}
	return out
}

func utc(t *time.Time) *time.Time {
	v := t.UTC()
	return &v
}

// validate checks expires_at and the category's active flag only when the
// caller sets them, so an expired posting or one in a retired category can
// still be edited or closed.
func (s *PostingService) validate(ctx context.Context, p *model.Posting, checkExpiry, checkCategory bool) error {
	fail := func(msg string) error { return apperr.ValidationFailure(msg, nil) }
	if p.Title == "" {
		return fail("title is required")
	}
	if _, ok := jobTypes[p.JobType]; !ok {
		return fail("unknown job_type " + strconv.Quote(p.JobType))
	}
	if _, ok := paymentTypes[p.PaymentType]; !ok {
		return fail("unknown payment_type " + strconv.Quote(p.PaymentType))
	}
	if _, ok := locationTypes[p.LocationType]; !ok {
		return fail("unknown location_type " + strconv.Quote(p.LocationType))
	}
	if _, ok := posterTypes[p.PosterType]; !ok {
		return fail("unknown poster_type " + strconv.Quote(p.PosterType))
	}
	if p.RequiredExperience != "" {
		if _, ok := experience[p.RequiredExperience]; !ok {
			return fail("unknown required_experience " + strconv.Quote(p.RequiredExperience))
		}
	}
	if p.PaymentAmount < 0 {
		return fail("payment_amount must not be negative")
	}
	if p.PaymentType == model.PaymentPaid && p.PaymentAmount <= 0 {
		return fail("a paid posting needs a positive payment_amount")
	}
	if p.Deadline != nil && p.EventDate != nil && p.Deadline.After(*p.EventDate) {
		return fail("deadline must not be after event_date")
	}
	if checkExpiry && p.ExpiresAt != nil && p.ExpiresAt.Before(s.now()) {
		return fail("expires_at is in the past")
	}
	if p.CategoryID == 0 {
		return fail("category_id is required")
	}
	if !checkCategory {
		return nil
	}
	cat, err := s.categories.FindByID(ctx, p.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("unknown category")
		}
		return apperr.RetrievalFailure("load category", err)
	}
	if !cat.Active {
		return fail("category is not active")
	}
	return nil
}

