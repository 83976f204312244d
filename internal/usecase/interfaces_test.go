package usecase_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

func TestNotifiersRunsEveryNotifier(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}

	err := usecase.Notifiers{failing, ok}.NotifyNewLead(entity.Lead{ID: "lead-1"})

	assert.ErrorContains(t, err, "smtp down")
	assert.Len(t, failing.leads, 1)
	assert.Len(t, ok.leads, 1)
	assert.NoError(t, usecase.Notifiers{}.NotifyNewLead(entity.Lead{}))
}
