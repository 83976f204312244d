package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

// ConversionPublisher hands a job to whatever delivers it to the ad
// platforms. Implementations must not block on the platforms themselves.
type ConversionPublisher interface {
	PublishConversion(ctx context.Context, job conversion.Job) error
}

type LeadNotifier interface {
	NotifyNewLead(lead entity.Lead) error
}

// Notifiers fans a new lead out to several notifiers. Every notifier runs
// even when an earlier one fails.
type Notifiers []LeadNotifier

func (ns Notifiers) NotifyNewLead(lead entity.Lead) error {
	var errs []error
	for _, n := range ns {
		if err := n.NotifyNewLead(lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
