package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/attribution"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"go.uber.org/zap"
)

const DefaultStoreTimeout = 5 * time.Second

type CaptureLeadUseCase struct {
	Repo         entity.LeadRepository
	Publisher    ConversionPublisher
	Notifier     LeadNotifier
	Logger       *zap.Logger
	StoreTimeout time.Duration
	Now          func() time.Time

	wg sync.WaitGroup
}

func NewCaptureLeadUseCase(
	repo entity.LeadRepository,
	publisher ConversionPublisher,
	notifier LeadNotifier,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *CaptureLeadUseCase {
	if logger == nil {
		logger = zap.L()
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &CaptureLeadUseCase{
		Repo:         repo,
		Publisher:    publisher,
		Notifier:     notifier,
		Logger:       logger.Named("capture_lead"),
		StoreTimeout: storeTimeout,
		Now:          time.Now,
	}
}

func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput) (*CaptureLeadOutput, error) {
	input.normalize()

	if errs := ValidateCaptureLeadInput(input); len(errs) > 0 {
		return nil, invalidInput(validationMessage(errs))
	}

	now := uc.now()

	if err := uc.checkDuplicate(ctx, input.Email, now); err != nil {
		return nil, err
	}

	req := input.Request
	if req.Now.IsZero() {
		req.Now = now
	}

	lead := &entity.Lead{
		Name:              input.Name,
		Email:             input.Email,
		Phone:             input.Phone,
		CountryOfInterest: input.CountryOfInterest,
		ProgramType:       entity.ProgramType(input.ProgramType),
		Major:             input.Major,
		Message:           input.Message,
		Source:            input.Source,
		Destination:       input.Destination,
		TargetUniversity:  input.TargetUniversity,
		TargetProgram:     input.TargetProgram,
		Tracking:          attribution.Extract(req),
		CreatedAt:         now,
	}
	if lead.Tracking.LandingPage == "" {
		lead.Tracking.LandingPage = input.PageURL
	}

	if err := uc.create(ctx, lead); err != nil {
		return nil, err
	}

	uc.Logger.Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("program_type", string(lead.ProgramType)),
		zap.String("source", lead.Source),
		zap.String("utm_source", lead.Tracking.UTMSource),
	)

	uc.afterCommit(ctx, *lead, input.PageURL)

	return &CaptureLeadOutput{
		ID:    lead.ID,
		Name:  lead.Name,
		Email: lead.Email,
	}, nil
}

// checkDuplicate is advisory: two concurrent submissions can both pass it.
// The stores back it with a unique (email, day) key, which turns the loser
// of that race into a ConflictingWrite when both land on the same UTC day.
func (uc *CaptureLeadUseCase) checkDuplicate(ctx context.Context, email string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, uc.StoreTimeout)
	defer cancel()

	exists, err := uc.Repo.ExistsByEmailSince(ctx, email, now.Add(-entity.DuplicateWindow))
	if err != nil {
		uc.Logger.Error("duplicate check failed", zap.Error(err))
		return dependencyUnavailable("lead store unavailable, please try again later", err)
	}
	if exists {
		return &DomainError{
			Code:    CodeRateLimited,
			Message: "You have already submitted an inquiry recently. Please wait 24 hours before submitting again.",
		}
	}
	return nil
}

func (uc *CaptureLeadUseCase) create(ctx context.Context, lead *entity.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, uc.StoreTimeout)
	defer cancel()

	err := uc.Repo.Create(ctx, lead)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrDuplicateLead):
		return &DomainError{
			Code:    CodeConflictingWrite,
			Message: "An inquiry for this email was submitted at the same time. Please wait 24 hours before submitting again.",
		}
	default:
		uc.Logger.Error("lead insert failed", zap.Error(err))
		return dependencyUnavailable("lead store unavailable, please try again later", err)
	}
}

// afterCommit runs once the lead is stored. Nothing here can fail the
// request.
func (uc *CaptureLeadUseCase) afterCommit(ctx context.Context, lead entity.Lead, pageURL string) {
	ctx = context.WithoutCancel(ctx)

	if uc.Publisher != nil {
		job := conversion.NewLeadCreatedJob(lead, pageURL)
		if err := uc.Publisher.PublishConversion(ctx, job); err != nil {
			uc.Logger.Warn("conversion publish failed",
				zap.String("lead_id", lead.ID),
				zap.String("event_id", job.EventID),
				zap.Error(err),
			)
		}
	}

	if uc.Notifier != nil {
		uc.wg.Add(1)
		go func() {
			defer uc.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					uc.Logger.Error("lead notification panicked", zap.Any("panic", r))
				}
			}()
			if err := uc.Notifier.NotifyNewLead(lead); err != nil {
				uc.Logger.Warn("lead notification failed", zap.String("lead_id", lead.ID), zap.Error(err))
			}
		}()
	}
}

// Wait blocks until background notifications have finished.
func (uc *CaptureLeadUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *CaptureLeadUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}
