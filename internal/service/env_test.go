package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/testutil"
)

type recordingSink struct {
	mu     sync.Mutex
	events []uint64
}

func (s *recordingSink) TrackView(jobID uint64, viewerID *uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, jobID)
}

type env struct {
	db        *gorm.DB
	postings  *mysql.PostingRepository
	sink      *recordingSink
	posting   *PostingService
	apps      *ApplicationService
	saved     *SavedService
	analytics *AnalyticsService
	recommend *RecommendService
	category  *model.Category
	owner     *model.User
	artist    *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zap.NewNop()
	postings := &mysql.PostingRepository{DB: db}
	categories := &mysql.CategoryRepository{DB: db}
	apps := &mysql.ApplicationRepository{DB: db}
	saved := &mysql.SavedRepository{DB: db}
	views := &mysql.ViewRepository{DB: db}
	users := &mysql.UserRepository{DB: db}
	sink := &recordingSink{}

	e := &env{
		db:        db,
		postings:  postings,
		sink:      sink,
		posting:   NewPostingService(postings, categories, sink, logger),
		apps:      NewApplicationService(apps, postings, users, logger),
		saved:     NewSavedService(saved, postings, nil, logger),
		analytics: NewAnalyticsService(postings, views, apps, saved),
		recommend: NewRecommendService(postings, apps, logger),
		category:  testutil.MustCreateCategory(t, db, "Music Production", 1),
		owner:     testutil.MustCreateUser(t, db, "venue", model.AccountVenue),
		artist:    testutil.MustCreateUser(t, db, "artist", model.AccountArtist),
	}
	e.posting.now = func() time.Time { return testutil.Base }
	return e
}

func ptr[T any](v T) *T { return &v }

// paidInput is a valid create request for a paid remote gig.
func (e *env) paidInput(title string, amount float64) PostingInput {
	return PostingInput{
		CategoryID:    ptr(e.category.ID),
		Title:         ptr(title),
		Description:   ptr("looking for someone great"),
		JobType:       ptr(model.JobTypeJob),
		PaymentType:   ptr(model.PaymentPaid),
		PaymentAmount: ptr(amount),
		LocationType:  ptr(model.LocationRemote),
	}
}

func (e *env) mustCreate(t *testing.T, in PostingInput) *model.Posting {
	t.Helper()
	p, err := e.posting.Create(context.Background(), e.owner.ID, e.owner.AccountType, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}
