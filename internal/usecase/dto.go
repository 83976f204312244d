package usecase

import (
	"strings"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/attribution"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

type CaptureLeadInput struct {
	Name              string `json:"name" validate:"required,max=200"`
	Email             string `json:"email" validate:"required,leademail,max=254"`
	Phone             string `json:"phone" validate:"required,leadphone"`
	CountryOfInterest string `json:"countryOfInterest" validate:"required,max=100"`
	ProgramType       string `json:"programType" validate:"required,programtype"`

	Major            string `json:"major,omitempty" validate:"max=200"`
	Message          string `json:"message,omitempty" validate:"max=5000"`
	Source           string `json:"source,omitempty" validate:"max=100"`
	Destination      string `json:"destination,omitempty" validate:"max=100"`
	TargetUniversity string `json:"targetUniversity,omitempty" validate:"max=200"`
	TargetProgram    string `json:"targetProgram,omitempty" validate:"max=200"`
	PageURL          string `json:"pageUrl,omitempty" validate:"max=2048"`

	Request attribution.Request `json:"-" validate:"-"`
}

func (in *CaptureLeadInput) normalize() {
	for _, f := range []*string{
		&in.Name, &in.Email, &in.Phone, &in.CountryOfInterest, &in.ProgramType,
		&in.Major, &in.Message, &in.Source, &in.Destination,
		&in.TargetUniversity, &in.TargetProgram, &in.PageURL,
	} {
		*f = strings.TrimSpace(*f)
	}
}

type CaptureLeadOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateLeadStatusInput struct {
	LeadID string `json:"-"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type UpdateLeadStatusOutput struct {
	ID             string            `json:"id"`
	PreviousStatus entity.LeadStatus `json:"previousStatus"`
	Status         entity.LeadStatus `json:"status"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}
