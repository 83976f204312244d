package usecase_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/edconsult-leads/internal/attribution"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"github.com/xavierca1/edconsult-leads/internal/infra/memory"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func janeDoe() usecase.CaptureLeadInput {
	return usecase.CaptureLeadInput{
		Name:              "Jane Doe",
		Email:             "jane@x.com",
		Phone:             "+8801234567890",
		CountryOfInterest: "UK",
		ProgramType:       "Masters",
	}
}

func newCaptureUseCase(repo entity.LeadRepository, pub usecase.ConversionPublisher, n usecase.LeadNotifier) *usecase.CaptureLeadUseCase {
	uc := usecase.NewCaptureLeadUseCase(repo, pub, n, zap.NewNop(), time.Second)
	uc.Now = func() time.Time { return fixedNow }
	return uc
}

func TestCaptureLead_Success(t *testing.T) {
	repo := new(MockLeadRepository)
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}

	repo.On("ExistsByEmailSince", mock.Anything, "jane@x.com", fixedNow.Add(-24*time.Hour)).Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.Name == "Jane Doe" && l.Tracking.UTMSource == "facebook" && l.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	input := janeDoe()
	input.Request = attribution.Request{Query: url.Values{"utm_source": {"facebook"}}}

	uc := newCaptureUseCase(repo, pub, notifier)
	out, err := uc.Execute(context.Background(), input)
	uc.Wait()

	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Jane Doe", out.Name)
	assert.Equal(t, "jane@x.com", out.Email)
	repo.AssertExpectations(t)

	jobs := pub.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, conversion.JobLeadCreated, jobs[0].Kind)
	assert.Equal(t, out.ID, jobs[0].Lead.ID)
	assert.Equal(t, entity.StatusNew, jobs[0].Lead.Status)

	require.Len(t, notifier.leads, 1)
	assert.Equal(t, out.ID, notifier.leads[0].ID)
}

func TestCaptureLead_TrimsInput(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ExistsByEmailSince", mock.Anything, "jane@x.com", mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	input := janeDoe()
	input.Email = "  jane@x.com "
	input.Name = " Jane Doe"

	out, err := newCaptureUseCase(repo, nil, nil).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", out.Email)
	assert.Equal(t, "Jane Doe", out.Name)
}

func TestCaptureLead_MissingRequiredFields(t *testing.T) {
	blank := func(f func(*usecase.CaptureLeadInput)) usecase.CaptureLeadInput {
		in := janeDoe()
		f(&in)
		return in
	}
	cases := map[string]usecase.CaptureLeadInput{
		"name":              blank(func(in *usecase.CaptureLeadInput) { in.Name = "" }),
		"email":             blank(func(in *usecase.CaptureLeadInput) { in.Email = "   " }),
		"phone":             blank(func(in *usecase.CaptureLeadInput) { in.Phone = "" }),
		"countryOfInterest": blank(func(in *usecase.CaptureLeadInput) { in.CountryOfInterest = "" }),
		"programType":       blank(func(in *usecase.CaptureLeadInput) { in.ProgramType = "" }),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(MockLeadRepository)
			out, err := newCaptureUseCase(repo, nil, nil).Execute(context.Background(), input)

			assert.Nil(t, out)
			require.Error(t, err)
			assert.Equal(t, usecase.CodeInvalidInput, usecase.CodeOf(err))
			assert.Contains(t, err.Error(), "name, email, phone, countryOfInterest, programType")
			repo.AssertNotCalled(t, "ExistsByEmailSince", mock.Anything, mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCaptureLead_InvalidFormats(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*usecase.CaptureLeadInput)
		msg   string
	}{
		{"email", func(in *usecase.CaptureLeadInput) { in.Email = "not-an-email" }, "email"},
		{"phone", func(in *usecase.CaptureLeadInput) { in.Phone = "abc" }, "phone"},
		{"program type", func(in *usecase.CaptureLeadInput) { in.ProgramType = "Diploma" }, "programType"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := janeDoe()
			tc.setup(&in)
			repo := new(MockLeadRepository)

			_, err := newCaptureUseCase(repo, nil, nil).Execute(context.Background(), in)

			require.Error(t, err)
			assert.True(t, usecase.IsDomainError(err))
			assert.Equal(t, usecase.CodeInvalidInput, usecase.CodeOf(err))
			assert.Contains(t, err.Error(), tc.msg)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCaptureLead_DuplicateWithinWindow(t *testing.T) {
	repo := new(MockLeadRepository)
	pub := &recordingPublisher{}
	repo.On("ExistsByEmailSince", mock.Anything, "jane@x.com", mock.Anything).Return(true, nil)

	_, err := newCaptureUseCase(repo, pub, nil).Execute(context.Background(), janeDoe())

	require.Error(t, err)
	assert.Equal(t, usecase.CodeRateLimited, usecase.CodeOf(err))
	assert.Contains(t, err.Error(), "24 hours")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, pub.Jobs())
}

func TestCaptureLead_WindowAndRepeatedRejection(t *testing.T) {
	repo := memory.NewLeadRepository()
	require.NoError(t, repo.Create(context.Background(), &entity.Lead{
		Name:              "Old Inquiry",
		Email:             "a@example.com",
		Phone:             "+8801234567890",
		CountryOfInterest: "UK",
		ProgramType:       entity.ProgramMasters,
		CreatedAt:         fixedNow.Add(-25 * time.Hour),
	}))
	uc := newCaptureUseCase(repo, nil, nil)

	input := janeDoe()
	input.Email = "a@example.com"

	out, err := uc.Execute(context.Background(), input)
	require.NoError(t, err, "a lead older than 24h must not block a new one")
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, 2, repo.Len())

	_, err = uc.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, usecase.CodeRateLimited, usecase.CodeOf(err))

	invalid := input
	invalid.Email = "not-an-email"
	_, first := uc.Execute(context.Background(), invalid)
	_, second := uc.Execute(context.Background(), invalid)

	require.Error(t, first)
	assert.Equal(t, usecase.CodeInvalidInput, usecase.CodeOf(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 2, repo.Len())
}

func TestCaptureLead_DuplicateCheckStoreDown(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ExistsByEmailSince", mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("dial tcp 10.0.0.5:27017: connection refused"))

	_, err := newCaptureUseCase(repo, nil, nil).Execute(context.Background(), janeDoe())

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.Equal(t, usecase.CodeDependencyUnavailable, usecase.CodeOf(err))
	assert.NotContains(t, usecase.PublicMessage(err), "10.0.0.5")
}

func TestCaptureLead_StoreConflict(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ExistsByEmailSince", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(entity.ErrDuplicateLead)

	_, err := newCaptureUseCase(repo, nil, nil).Execute(context.Background(), janeDoe())

	assert.Equal(t, usecase.CodeConflictingWrite, usecase.CodeOf(err))
}

func TestCaptureLead_StoreWriteFails(t *testing.T) {
	repo := new(MockLeadRepository)
	pub := &recordingPublisher{}
	repo.On("ExistsByEmailSince", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

	_, err := newCaptureUseCase(repo, pub, nil).Execute(context.Background(), janeDoe())

	assert.Equal(t, usecase.CodeDependencyUnavailable, usecase.CodeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, pub.Jobs())
}

func TestCaptureLead_SideEffectFailuresAreSwallowed(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ExistsByEmailSince", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	pub := &recordingPublisher{err: errors.New("broker closed")}
	notifier := &recordingNotifier{err: errors.New("smtp down")}

	uc := newCaptureUseCase(repo, pub, notifier)
	out, err := uc.Execute(context.Background(), janeDoe())
	uc.Wait()

	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Len(t, pub.Jobs(), 1)
}

func TestValidatePhoneFormats(t *testing.T) {
	valid := []string{"+8801234567890", "(020) 7946-0958", "01712 345 678", "+1 (555) 010-9999", "1"}
	invalid := []string{"abc", "+", "++880123", "12345678901234567", "0171.234.5678", ""}

	for _, p := range valid {
		assert.True(t, usecase.IsValidPhone(p), p)
	}
	for _, p := range invalid {
		assert.False(t, usecase.IsValidPhone(p), p)
	}
}

func TestValidateEmailFormats(t *testing.T) {
	assert.True(t, usecase.IsValidEmail("jane@x.com"))
	assert.True(t, usecase.IsValidEmail("j.doe+uk@mail.example.co.uk"))
	assert.False(t, usecase.IsValidEmail("not-an-email"))
	assert.False(t, usecase.IsValidEmail("jane@localhost"))
	assert.False(t, usecase.IsValidEmail("jane doe@x.com"))
}
