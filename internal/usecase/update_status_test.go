package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
	"go.uber.org/zap"
)

func storedLead() *entity.Lead {
	l := &entity.Lead{ID: "lead-42", Name: "Jane Doe", Email: "jane@x.com", CreatedAt: fixedNow.Add(-48 * time.Hour)}
	l.PrepareForCreate(fixedNow)
	return l
}

func newStatusUseCase(repo entity.LeadRepository, pub usecase.ConversionPublisher) *usecase.UpdateLeadStatusUseCase {
	uc := usecase.NewUpdateLeadStatusUseCase(repo, pub, zap.NewNop(), time.Second)
	uc.Now = func() time.Time { return fixedNow }
	return uc
}

func TestUpdateLeadStatus_Success(t *testing.T) {
	repo := new(MockLeadRepository)
	pub := &recordingPublisher{}

	repo.On("FindByID", mock.Anything, "lead-42").Return(storedLead(), nil)
	repo.On("UpdateStatus", mock.Anything, "lead-42", entity.StatusEnrolled, entity.TimelineEntry{
		Action:    "Status changed from New to Enrolled",
		Timestamp: fixedNow,
		Note:      "visa approved",
	}).Return(nil)

	out, err := newStatusUseCase(repo, pub).Execute(context.Background(), usecase.UpdateLeadStatusInput{
		LeadID: "lead-42",
		Status: "Enrolled",
		Reason: " visa approved ",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, out.PreviousStatus)
	assert.Equal(t, entity.StatusEnrolled, out.Status)
	assert.Equal(t, fixedNow, out.UpdatedAt)
	repo.AssertExpectations(t)

	jobs := pub.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, conversion.JobStatusChanged, jobs[0].Kind)
	assert.Equal(t, entity.StatusNew, jobs[0].PreviousStatus)
	assert.Equal(t, entity.StatusEnrolled, jobs[0].NewStatus)
	assert.Equal(t, "visa approved", jobs[0].Reason)
	assert.Len(t, jobs[0].Lead.Timeline, 2)
}

func TestUpdateLeadStatus_AnyTransitionAllowed(t *testing.T) {
	lead := storedLead()
	lead.Status = entity.StatusRejected

	repo := new(MockLeadRepository)
	repo.On("FindByID", mock.Anything, "lead-42").Return(lead, nil)
	repo.On("UpdateStatus", mock.Anything, "lead-42", entity.StatusNew, mock.Anything).Return(nil)

	out, err := newStatusUseCase(repo, nil).Execute(context.Background(), usecase.UpdateLeadStatusInput{
		LeadID: "lead-42",
		Status: "New",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, out.PreviousStatus)
}

func TestUpdateLeadStatus_InvalidStatus(t *testing.T) {
	repo := new(MockLeadRepository)

	_, err := newStatusUseCase(repo, nil).Execute(context.Background(), usecase.UpdateLeadStatusInput{
		LeadID: "lead-42",
		Status: "Lost",
	})

	assert.Equal(t, usecase.CodeInvalidInput, usecase.CodeOf(err))
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateLeadStatus_NotFound(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, entity.ErrLeadNotFound)

	_, err := newStatusUseCase(repo, nil).Execute(context.Background(), usecase.UpdateLeadStatusInput{
		LeadID: "missing",
		Status: "Contacted",
	})

	assert.Equal(t, usecase.CodeNotFound, usecase.CodeOf(err))
}

func TestUpdateLeadStatus_StoreFailure(t *testing.T) {
	repo := new(MockLeadRepository)
	pub := &recordingPublisher{}
	repo.On("FindByID", mock.Anything, "lead-42").Return(storedLead(), nil)
	repo.On("UpdateStatus", mock.Anything, "lead-42", mock.Anything, mock.Anything).Return(errors.New("timeout"))

	_, err := newStatusUseCase(repo, pub).Execute(context.Background(), usecase.UpdateLeadStatusInput{
		LeadID: "lead-42",
		Status: "Contacted",
	})

	assert.Equal(t, usecase.CodeDependencyUnavailable, usecase.CodeOf(err))
	assert.Empty(t, pub.Jobs())
}
