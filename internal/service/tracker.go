package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/repository/mysql"
)

const (
	defaultTrackerWorkers   = 2
	defaultTrackerQueueSize = 1024
	recentViewsLimit        = 10
	viewWriteTimeout        = 5 * time.Second
)

type viewEvent struct {
	jobID    uint64
	viewerID *uint64
	at       time.Time
}

// ViewTracker records posting views off the request path. Events go through
// a bounded queue; when it is full the event is dropped.
type ViewTracker struct {
	repo    *mysql.ViewRepository
	logger  *zap.Logger
	workers int
	queue   chan viewEvent
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
	now     func() time.Time
}

func NewViewTracker(repo *mysql.ViewRepository, workers, queueSize int, logger *zap.Logger) *ViewTracker {
	if workers <= 0 {
		workers = defaultTrackerWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultTrackerQueueSize
	}
	return &ViewTracker{
		repo:    repo,
		logger:  logger,
		workers: workers,
		queue:   make(chan viewEvent, queueSize),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (t *ViewTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.closed {
		return
	}
	t.started = true
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.run()
	}
}

// TrackView never blocks the caller.
func (t *ViewTracker) TrackView(jobID uint64, viewerID *uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	ev := viewEvent{jobID: jobID, at: t.now()}
	if viewerID != nil && *viewerID != 0 {
		v := *viewerID
		ev.viewerID = &v
	}
	select {
	case t.queue <- ev:
	default:
		t.logger.Warn("view queue full, dropping event", zap.Uint64("job_id", jobID))
	}
}

// Stop closes the queue and waits until every queued event is written.
func (t *ViewTracker) Stop() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	started := t.started
	t.mu.Unlock()

	if !started {
		for ev := range t.queue {
			t.record(ev)
		}
		return
	}
	t.wg.Wait()
}

func (t *ViewTracker) run() {
	defer t.wg.Done()
	for ev := range t.queue {
		t.record(ev)
	}
}

func (t *ViewTracker) record(ev viewEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), viewWriteTimeout)
	defer cancel()
	if err := t.repo.Record(ctx, ev.jobID, ev.viewerID, ev.at); err != nil {
		t.logger.Error("record view failed", zap.Uint64("job_id", ev.jobID), zap.Error(err))
	}
}

// Analytics is the owner-facing summary of a posting.
type Analytics struct {
	JobID        uint64      `json:"job_id"`
	Views        int64       `json:"views"`
	Applications int64       `json:"applications"`
	Saves        int64       `json:"saves"`
	RecentViews  []time.Time `json:"recent_views"`
}

type AnalyticsService struct {
	postings *mysql.PostingRepository
	views    *mysql.ViewRepository
	apps     *mysql.ApplicationRepository
	saved    *mysql.SavedRepository
}

func NewAnalyticsService(postings *mysql.PostingRepository, views *mysql.ViewRepository, apps *mysql.ApplicationRepository, saved *mysql.SavedRepository) *AnalyticsService {
	return &AnalyticsService{postings: postings, views: views, apps: apps, saved: saved}
}

func (s *AnalyticsService) Get(ctx context.Context, jobID, callerID uint64) (*Analytics, error) {
	p, err := s.postings.FindByID(ctx, jobID)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if err := requireActor(p.PostedBy, callerID, "only the owner can view analytics"); err != nil {
		return nil, err
	}
	out := &Analytics{JobID: jobID}
	if out.Views, err = s.views.CountByJob(ctx, jobID); err != nil {
		return nil, apperr.RetrievalFailure("count views", err)
	}
	if out.Applications, err = s.apps.CountActiveByJob(ctx, jobID); err != nil {
		return nil, apperr.RetrievalFailure("count applications", err)
	}
	if out.Saves, err = s.saved.CountByJob(ctx, jobID); err != nil {
		return nil, apperr.RetrievalFailure("count saves", err)
	}
	if out.RecentViews, err = s.views.Recent(ctx, jobID, recentViewsLimit); err != nil {
		return nil, apperr.RetrievalFailure("recent views", err)
	}
	if out.RecentViews == nil {
		out.RecentViews = []time.Time{}
	}
	return out, nil
}
