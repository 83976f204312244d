package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"go.uber.org/zap"
)

type UpdateLeadStatusUseCase struct {
	Repo         entity.LeadRepository
	Publisher    ConversionPublisher
	Logger       *zap.Logger
	StoreTimeout time.Duration
	Now          func() time.Time
}

func NewUpdateLeadStatusUseCase(
	repo entity.LeadRepository,
	publisher ConversionPublisher,
	logger *zap.Logger,
	storeTimeout time.Duration,
) *UpdateLeadStatusUseCase {
	if logger == nil {
		logger = zap.L()
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &UpdateLeadStatusUseCase{
		Repo:         repo,
		Publisher:    publisher,
		Logger:       logger.Named("update_lead_status"),
		StoreTimeout: storeTimeout,
		Now:          time.Now,
	}
}

func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateLeadStatusInput) (*UpdateLeadStatusOutput, error) {
	status := entity.LeadStatus(strings.TrimSpace(input.Status))
	if !status.Valid() {
		return nil, invalidInput("status must be one of: " + joinStatuses())
	}
	id := strings.TrimSpace(input.LeadID)
	if id == "" {
		return nil, invalidInput("lead id is required")
	}

	storeCtx, cancel := context.WithTimeout(ctx, uc.StoreTimeout)
	defer cancel()

	lead, err := uc.Repo.FindByID(storeCtx, id)
	if err != nil {
		return nil, uc.storeError(err)
	}

	previous := lead.Status
	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	entry := lead.ChangeStatus(status, strings.TrimSpace(input.Reason), now)

	if err := uc.Repo.UpdateStatus(storeCtx, lead.ID, status, entry); err != nil {
		return nil, uc.storeError(err)
	}

	uc.Logger.Info("lead status changed",
		zap.String("lead_id", lead.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)

	if uc.Publisher != nil {
		job := conversion.NewStatusChangedJob(*lead, previous, status, entry.Note)
		if err := uc.Publisher.PublishConversion(context.WithoutCancel(ctx), job); err != nil {
			uc.Logger.Warn("conversion publish failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}

	return &UpdateLeadStatusOutput{
		ID:             lead.ID,
		PreviousStatus: previous,
		Status:         status,
		UpdatedAt:      lead.UpdatedAt,
	}, nil
}

func (uc *UpdateLeadStatusUseCase) storeError(err error) error {
	if errors.Is(err, entity.ErrLeadNotFound) {
		return &DomainError{Code: CodeNotFound, Message: "lead not found"}
	}
	uc.Logger.Error("lead store failed", zap.Error(err))
	return dependencyUnavailable("lead store unavailable, please try again later", err)
}

func joinStatuses() string {
	names := make([]string, len(entity.LeadStatuses))
	for i, s := range entity.LeadStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
