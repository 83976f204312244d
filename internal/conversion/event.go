package conversion

import (
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

const (
	EventLead             = "Lead"
	EventLeadStatusChange = "LeadStatusChange"

	ActionSourceWebsite = "website"
)

type JobKind string

const (
	JobLeadCreated   JobKind = "lead_created"
	JobStatusChanged JobKind = "status_changed"
)

// Job is what gets handed to the dispatcher, either directly in a goroutine
// or through the broker. It stays inside our infrastructure; only the built
// Event (with hashed PII) leaves it.
type Job struct {
	Kind           JobKind           `json:"kind"`
	EventID        string            `json:"event_id"`
	OccurredAt     time.Time         `json:"occurred_at"`
	Lead           entity.Lead       `json:"lead"`
	PageURL        string            `json:"page_url,omitempty"`
	PreviousStatus entity.LeadStatus `json:"previous_status,omitempty"`
	NewStatus      entity.LeadStatus `json:"new_status,omitempty"`
	Reason         string            `json:"reason,omitempty"`
}

func NewLeadCreatedJob(lead entity.Lead, pageURL string) Job {
	return Job{
		Kind:       JobLeadCreated,
		EventID:    uuid.New().String(),
		OccurredAt: lead.CreatedAt,
		Lead:       lead,
		PageURL:    pageURL,
	}
}

func NewStatusChangedJob(lead entity.Lead, from, to entity.LeadStatus, reason string) Job {
	return Job{
		Kind:           JobStatusChanged,
		EventID:        uuid.New().String(),
		OccurredAt:     lead.UpdatedAt,
		Lead:           lead,
		PreviousStatus: from,
		NewStatus:      to,
		Reason:         reason,
	}
}

type UserData struct {
	Email           []string `json:"em,omitempty"`
	Phone           []string `json:"ph,omitempty"`
	FirstName       []string `json:"fn,omitempty"`
	LastName        []string `json:"ln,omitempty"`
	ExternalID      []string `json:"external_id,omitempty"`
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
	FBC             string   `json:"fbc,omitempty"`
	FBP             string   `json:"fbp,omitempty"`
}

type CustomData struct {
	ContentName     string  `json:"content_name,omitempty"`
	ContentCategory string  `json:"content_category,omitempty"`
	Value           float64 `json:"value"`
	Currency        string  `json:"currency"`
	Destination     string  `json:"destination,omitempty"`
	ProgramType     string  `json:"program_type,omitempty"`
	Source          string  `json:"lead_source,omitempty"`
	LeadID          string  `json:"lead_id"`
	PreviousStatus  string  `json:"previous_status,omitempty"`
	NewStatus       string  `json:"new_status,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	UTMSource       string  `json:"utm_source,omitempty"`
	UTMMedium       string  `json:"utm_medium,omitempty"`
	UTMCampaign     string  `json:"utm_campaign,omitempty"`
	GClid           string  `json:"gclid,omitempty"`
}

type Event struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
	ActionSource   string     `json:"action_source"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

// statusValues is the value proxy reported for a status change, roughly how
// far the student has moved toward enrolment.
var statusValues = map[entity.LeadStatus]float64{
	entity.StatusContacted:            5,
	entity.StatusQualified:            10,
	entity.StatusApplicationStarted:   25,
	entity.StatusApplicationSubmitted: 40,
	entity.StatusOfferReceived:        60,
	entity.StatusVisaProcessing:       80,
	entity.StatusEnrolled:             100,
}

const leadCreatedValue = 1.0

// BuildEvent converts a job into the wire event. PII is hashed here and
// nowhere else.
func BuildEvent(job Job, opts Options) Event {
	lead := job.Lead
	tr := lead.Tracking
	first, last := SplitName(lead.Name)

	sourceURL := job.PageURL
	if sourceURL == "" {
		sourceURL = tr.LandingPage
	}
	if sourceURL == "" {
		sourceURL = opts.SiteURL
	}

	destination := lead.Destination
	if destination == "" {
		destination = lead.CountryOfInterest
	}

	ev := Event{
		EventTime:      job.OccurredAt.Unix(),
		EventID:        job.EventID,
		EventSourceURL: sourceURL,
		ActionSource:   ActionSourceWebsite,
		UserData: UserData{
			Email:           hashed(lead.Email),
			Phone:           hashed(NormalizePhone(lead.Phone, opts.DefaultRegion)),
			FirstName:       hashed(first),
			LastName:        hashed(last),
			ExternalID:      hashed(lead.ID),
			ClientIPAddress: tr.ClientIP,
			ClientUserAgent: tr.UserAgent,
			FBC:             tr.FBC,
			FBP:             tr.FBP,
		},
		CustomData: CustomData{
			Currency:    opts.Currency,
			Destination: destination,
			ProgramType: string(lead.ProgramType),
			Source:      lead.Source,
			LeadID:      lead.ID,
			UTMSource:   tr.UTMSource,
			UTMMedium:   tr.UTMMedium,
			UTMCampaign: tr.UTMCampaign,
			GClid:       tr.GClid,
		},
	}

	switch job.Kind {
	case JobStatusChanged:
		ev.EventName = EventLeadStatusChange
		ev.CustomData.ContentName = "Lead Status: " + string(job.NewStatus)
		ev.CustomData.ContentCategory = "status_change"
		ev.CustomData.Value = statusValues[job.NewStatus]
		ev.CustomData.PreviousStatus = string(job.PreviousStatus)
		ev.CustomData.NewStatus = string(job.NewStatus)
		ev.CustomData.Reason = job.Reason
	default:
		ev.EventName = EventLead
		ev.CustomData.ContentName = "Student Inquiry - " + string(lead.ProgramType)
		ev.CustomData.ContentCategory = "lead_generation"
		ev.CustomData.Value = leadCreatedValue
	}

	return ev
}

func hashed(v string) []string {
	h := HashValue(v)
	if h == "" {
		return nil
	}
	return []string{h}
}
