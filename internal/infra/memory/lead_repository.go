// Package memory is a process-local lead store for development and tests.
// It enforces the same (email, day) uniqueness the durable stores do.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/entity"
)

type dayKey struct {
	email string
	day   string
}

type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
	byDay map[dayKey]string
	order []string
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads: make(map[string]*entity.Lead),
		byDay: make(map[dayKey]string),
	}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lead.PrepareForCreate(time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	k := dayKey{email: lead.Email, day: lead.DayBucket}
	if _, ok := r.byDay[k]; ok {
		return entity.ErrDuplicateLead
	}
	if _, ok := r.leads[lead.ID]; ok {
		return entity.ErrDuplicateLead
	}

	stored := clone(lead)
	r.leads[lead.ID] = stored
	r.byDay[k] = lead.ID
	r.order = append(r.order, lead.ID)
	return nil
}

func (r *LeadRepository) ExistsByEmailSince(ctx context.Context, email string, since time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		l := r.leads[r.order[i]]
		if l.Email == email && !l.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return clone(l), nil
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus, entry entity.TimelineEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	l.Status = status
	l.UpdatedAt = entry.Timestamp
	l.Timeline = append(l.Timeline, entry)
	return nil
}

// Len reports how many leads are stored.
func (r *LeadRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

func clone(l *entity.Lead) *entity.Lead {
	c := *l
	c.Timeline = append([]entity.TimelineEntry(nil), l.Timeline...)
	if l.LastContactAt != nil {
		t := *l.LastContactAt
		c.LastContactAt = &t
	}
	return &c
}
