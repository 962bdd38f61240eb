package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/telemetry"
)

// ApplicationInput is what an applicant submits.
type ApplicationInput struct {
	Message      string   `json:"message"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone"`
	Skills       []string `json:"skills"`
	Instruments  []string `json:"instruments"`
	PreviousWork string   `json:"previous_work"`
	PortfolioURL string   `json:"portfolio_url"`
}

type ApplicationService struct {
	repo     *mysql.ApplicationRepository
	postings *mysql.PostingRepository
	users    *mysql.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewApplicationService(repo *mysql.ApplicationRepository, postings *mysql.PostingRepository, users *mysql.UserRepository, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		repo:     repo,
		postings: postings,
		users:    users,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ApplicationService) Apply(ctx context.Context, jobID, applicantID uint64, in ApplicationInput) (*model.Application, error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "ApplicationService.Apply")
	defer span.End()
	span.SetAttributes(telemetry.Uint64("job.id", jobID), telemetry.Uint64("applicant.id", applicantID))

	if applicantID == 0 {
		return nil, apperr.Unauthorized("login required", nil)
	}
	p, err := s.postings.FindByID(ctx, jobID)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if p.Status != model.PostingStatusOpen {
		return nil, apperr.ValidationFailure("posting is not accepting applications", nil)
	}
	if p.PostedBy == applicantID {
		return nil, apperr.ValidationFailure("cannot apply to your own posting", nil)
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, apperr.ValidationFailure("message is required", nil)
	}

	if _, err := s.repo.FindActive(ctx, jobID, applicantID); err == nil {
		return nil, apperr.DuplicateApplication("already applied to this posting", nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.RetrievalFailure("check existing application", err)
	}

	app := &model.Application{
		JobID:        jobID,
		ApplicantID:  applicantID,
		Message:      msg,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Skills:       tagSet(in.Skills),
		Instruments:  tagSet(in.Instruments),
		PreviousWork: strings.TrimSpace(in.PreviousWork),
		PortfolioURL: strings.TrimSpace(in.PortfolioURL),
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.DuplicateApplication("already applied to this posting", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		return nil, apperr.RetrievalFailure("create application", err)
	}
	s.logger.Info("application created",
		zap.Uint64("application_id", app.ID),
		zap.Uint64("job_id", jobID),
		zap.Uint64("applicant_id", applicantID))
	return app, nil
}

// ListForPosting is visible to the posting owner only.
func (s *ApplicationService) ListForPosting(ctx context.Context, jobID, callerID uint64) ([]model.Application, error) {
	p, err := s.postings.FindByID(ctx, jobID)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if err := requireActor(p.PostedBy, callerID, "only the owner can list applications"); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperr.RetrievalFailure("list applications", err)
	}
	return list, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, applicantID uint64) ([]model.ApplicationWithJob, error) {
	list, err := s.repo.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, apperr.RetrievalFailure("list applications", err)
	}
	return list, nil
}

// UpdateStatus lets the posting owner accept or reject a pending application.
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID, callerID uint64, status, feedback string) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	p, err := s.postings.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, storeErr(err, "posting")
	}
	if err := requireActor(p.PostedBy, callerID, "only the posting owner can respond"); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if status != model.ApplicationAccepted && status != model.ApplicationRejected {
		return nil, apperr.ValidationFailure("status must be accepted or rejected", nil)
	}
	if app.Status != model.ApplicationPending {
		return nil, apperr.ValidationFailure("application is already "+app.Status, nil)
	}

	recipient := app.ContactEmail
	if recipient == "" {
		if u, err := s.users.FindByID(ctx, app.ApplicantID); err == nil {
			recipient = u.Email
		} else {
			s.logger.Warn("applicant email lookup failed", zap.Uint64("applicant_id", app.ApplicantID), zap.Error(err))
		}
	}
	err = s.repo.Respond(ctx, app, status, strings.TrimSpace(feedback), recipient, s.now())
	if errors.Is(err, mysql.ErrStaleState) {
		return nil, apperr.ValidationFailure("application is no longer pending", err)
	}
	if err != nil {
		return nil, apperr.RetrievalFailure("update application", err)
	}
	s.logger.Info("application status changed",
		zap.Uint64("application_id", app.ID),
		zap.String("status", status))
	return app, nil
}

// Withdraw is applicant-only and idempotent.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID, callerID uint64) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	if err := requireActor(app.ApplicantID, callerID, "only the applicant can withdraw"); err != nil {
		return nil, err
	}
	if app.Status == model.ApplicationWithdrawn {
		return app, nil
	}
	if _, err := s.repo.Withdraw(ctx, app); err != nil {
		return nil, apperr.RetrievalFailure("withdraw application", err)
	}
	app.Status = model.ApplicationWithdrawn
	return app, nil
}
