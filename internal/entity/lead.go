package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	StatusNew                  LeadStatus = "New"
	StatusContacted            LeadStatus = "Contacted"
	StatusQualified            LeadStatus = "Qualified"
	StatusApplicationStarted   LeadStatus = "Application Started"
	StatusApplicationSubmitted LeadStatus = "Application Submitted"
	StatusOfferReceived        LeadStatus = "Offer Received"
	StatusVisaProcessing       LeadStatus = "Visa Processing"
	StatusEnrolled             LeadStatus = "Enrolled"
	StatusRejected             LeadStatus = "Rejected"
	StatusWithdrawn            LeadStatus = "Withdrawn"
)

// LeadStatuses lists every status an admin may set. Any status may follow
// any other; there is no transition graph.
var LeadStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusApplicationStarted,
	StatusApplicationSubmitted,
	StatusOfferReceived,
	StatusVisaProcessing,
	StatusEnrolled,
	StatusRejected,
	StatusWithdrawn,
}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type ProgramType string

const (
	ProgramBachelor   ProgramType = "Bachelor"
	ProgramMasters    ProgramType = "Masters"
	ProgramPhD        ProgramType = "PhD"
	ProgramLanguage   ProgramType = "Language"
	ProgramFoundation ProgramType = "Foundation"
	ProgramNonDegree  ProgramType = "Non-Degree"
)

const (
	DefaultSource    = "Website Form"
	DefaultLeadScore = 50

	// DuplicateWindow is the rolling period in which a second lead for the
	// same email is refused.
	DuplicateWindow = 24 * time.Hour
)

type TimelineEntry struct {
	Action    string    `json:"action" bson:"action"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
}

type Lead struct {
	ID                string      `json:"id" bson:"_id"`
	Name              string      `json:"name" bson:"name"`
	Email             string      `json:"email" bson:"email"`
	Phone             string      `json:"phone" bson:"phone"`
	CountryOfInterest string      `json:"countryOfInterest" bson:"countryOfInterest"`
	ProgramType       ProgramType `json:"programType" bson:"programType"`

	Major            string `json:"major,omitempty" bson:"major,omitempty"`
	Message          string `json:"message,omitempty" bson:"message,omitempty"`
	Source           string `json:"source" bson:"source"`
	Destination      string `json:"destination,omitempty" bson:"destination,omitempty"`
	TargetUniversity string `json:"targetUniversity,omitempty" bson:"targetUniversity,omitempty"`
	TargetProgram    string `json:"targetProgram,omitempty" bson:"targetProgram,omitempty"`

	Status        LeadStatus `json:"status" bson:"status"`
	Priority      Priority   `json:"priority" bson:"priority"`
	AssignedTo    string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Notes         string     `json:"notes,omitempty" bson:"notes,omitempty"`
	LastContactAt *time.Time `json:"lastContactAt,omitempty" bson:"lastContactAt,omitempty"`

	LeadScore int             `json:"leadScore" bson:"leadScore"`
	Timeline  []TimelineEntry `json:"timeline" bson:"timeline"`
	Tracking  Attribution     `json:"tracking" bson:"tracking"`

	// DayBucket is the UTC calendar day of CreatedAt. Stores keep
	// (email, dayBucket) unique.
	DayBucket string    `json:"-" bson:"dayBucket"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PrepareForCreate fills the system fields every store sets on insert.
// A preset CreatedAt is kept so callers control the clock.
func (l *Lead) PrepareForCreate(now time.Time) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.CreatedAt
	l.DayBucket = DayBucket(l.CreatedAt)

	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Priority == "" {
		l.Priority = PriorityMedium
	}
	if l.LeadScore == 0 {
		l.LeadScore = DefaultLeadScore
	}
	if l.Source == "" {
		l.Source = DefaultSource
	}
	if len(l.Timeline) == 0 {
		l.Timeline = []TimelineEntry{{
			Action:    "Lead created",
			Timestamp: l.CreatedAt,
			Note:      "Submitted via " + l.Source,
		}}
	}
}

// ChangeStatus moves the lead to status and returns the timeline entry
// it appended.
func (l *Lead) ChangeStatus(status LeadStatus, reason string, now time.Time) TimelineEntry {
	entry := TimelineEntry{
		Action:    fmt.Sprintf("Status changed from %s to %s", l.Status, status),
		Timestamp: now.UTC(),
		Note:      reason,
	}
	l.Status = status
	l.UpdatedAt = entry.Timestamp
	l.Timeline = append(l.Timeline, entry)
	return entry
}

func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	ExistsByEmailSince(ctx context.Context, email string, since time.Time) (bool, error)
	FindByID(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id string, status LeadStatus, entry TimelineEntry) error
}
