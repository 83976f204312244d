package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	if args.Error(0) == nil {
		lead.PrepareForCreate(time.Now())
	}
	return args.Error(0)
}

func (m *MockLeadRepository) ExistsByEmailSince(ctx context.Context, email string, since time.Time) (bool, error) {
	args := m.Called(ctx, email, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus, entry entity.TimelineEntry) error {
	args := m.Called(ctx, id, status, entry)
	return args.Error(0)
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []conversion.Job
	err  error
}

func (p *recordingPublisher) PublishConversion(_ context.Context, job conversion.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return p.err
}

func (p *recordingPublisher) Jobs() []conversion.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]conversion.Job(nil), p.jobs...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []entity.Lead
	err   error
}

func (n *recordingNotifier) NotifyNewLead(lead entity.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return n.err
}
