package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/repository/mysql"
)

const (
	defaultOutboxBatch    = 200
	defaultOutboxInterval = time.Second
	defaultOutboxMaxRetry = 5
)

// Sender delivers one outbox row to a downstream sink.
type Sender func(ctx context.Context, ob *model.EventOutbox) error

// Locker keeps a single relayer draining the outbox across replicas.
type Locker interface {
	Acquire(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

// OutboxRelayer polls the outbox table and hands rows to its sender.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	sender    Sender
	lock      Locker
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
	maxRetry  int
}

// NewOutboxRelayer accepts a nil lock for single-instance deployments.
func NewOutboxRelayer(repo *mysql.OutboxRepository, sender Sender, lock Locker, logger *zap.Logger, batchSize int, interval time.Duration, maxRetry int) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = defaultOutboxBatch
	}
	if interval <= 0 {
		interval = defaultOutboxInterval
	}
	if maxRetry <= 0 {
		maxRetry = defaultOutboxMaxRetry
	}
	return &OutboxRelayer{
		repo:      repo,
		sender:    sender,
		lock:      lock,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		maxRetry:  maxRetry,
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce delivers one batch and returns how many rows were sent.
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	if r.lock != nil {
		token := uuid.NewString()
		ok, err := r.lock.Acquire(ctx, token)
		if err != nil {
			r.logger.Warn("outbox lock unavailable", zap.Error(err))
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := r.lock.Release(context.Background(), token); err != nil {
				r.logger.Warn("outbox lock release", zap.Error(err))
			}
		}()
	}

	rows, err := r.repo.ListDeliverable(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		r.logger.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.logger.Warn("outbox delivery failed",
				zap.String("event_id", ob.EventID),
				zap.String("event_type", ob.EventType),
				zap.Int("retry", ob.Retry+1),
				zap.Error(err))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.logger.Error("outbox mark failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.logger.Error("outbox mark sent", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// FanOut delivers to every sender in order and stops at the first failure.
func FanOut(senders ...Sender) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		for _, s := range senders {
			if err := s(ctx, ob); err != nil {
				return err
			}
		}
		return nil
	}
}

// KafkaSender publishes the raw payload keyed by aggregate id.
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.AggregateID), []byte(ob.Payload), map[string]string{
			"event_type": ob.EventType,
			"event_id":   ob.EventID,
		})
	}
}

// Mail is the part of pkg.Mailer the notification sender needs.
type Mail interface {
	Send(to, subject, htmlBody string) error
}

type statusPayload struct {
	JobID    uint64 `json:"job_id"`
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// MailSender notifies applicants when their application is accepted or rejected.
// Other events and rows without a recipient pass through.
func MailSender(m Mail, postings *mysql.PostingRepository) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		if ob.EventType != model.EventApplicationStatusChanged || ob.Recipient == "" {
			return nil
		}
		var body statusPayload
		if err := json.Unmarshal([]byte(ob.Payload), &body); err != nil {
			return fmt.Errorf("decode outbox payload %s: %w", ob.EventID, err)
		}
		title := fmt.Sprintf("posting #%d", body.JobID)
		if p, err := postings.FindByID(ctx, body.JobID); err == nil {
			title = p.Title
		}
		return m.Send(ob.Recipient, "Your application was "+body.Status, pkg.ApplicationStatusHTML(title, body.Status, body.Feedback))
	}
}

// LogSender is used when no broker is configured.
func LogSender(logger *zap.Logger) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		if ob == nil {
			return errors.New("nil outbox row")
		}
		logger.Info("outbox event",
			zap.String("event_id", ob.EventID),
			zap.String("event_type", ob.EventType),
			zap.Uint64("aggregate_id", ob.AggregateID),
			zap.String("payload", ob.Payload))
		return nil
	}
}
