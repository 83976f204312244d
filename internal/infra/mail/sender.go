package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"gopkg.in/gomail.v2"
)

type Message = gomail.Message

var newLeadTemplate = template.Must(template.New("new_lead").Parse(`<h2>New inquiry from {{.Name}}</h2>
<table>
<tr><td>Email</td><td>{{.Email}}</td></tr>
<tr><td>Phone</td><td>{{.Phone}}</td></tr>
<tr><td>Country</td><td>{{.CountryOfInterest}}</td></tr>
<tr><td>Program</td><td>{{.ProgramType}}</td></tr>
{{if .Major}}<tr><td>Major</td><td>{{.Major}}</td></tr>{{end}}
<tr><td>Source</td><td>{{.Source}}</td></tr>
{{if .UTMSource}}<tr><td>Campaign</td><td>{{.UTMSource}} / {{.UTMCampaign}}</td></tr>{{end}}
<tr><td>Received</td><td>{{.CreatedAt}}</td></tr>
</table>
{{if .Message}}<p>{{.Message}}</p>{{end}}
{{if .AdminURL}}<p><a href="{{.AdminURL}}">Open in admin</a></p>{{end}}
`))

func NewEmailSender(host string, port int, user, password, from string, to []string, adminURL string) *EmailSender {
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		AdminURL: adminURL,
	}
	s.send = s.dialAndSend
	return s
}

// Enabled is false when no SMTP host or recipient is configured; the
// notifier is then skipped entirely.
func (s *EmailSender) Enabled() bool {
	return s != nil && s.Host != "" && len(s.To) > 0
}

func (s *EmailSender) NotifyNewLead(lead entity.Lead) error {
	if !s.Enabled() {
		return nil
	}

	body, err := s.newLeadBody(lead)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s (%s, %s)", lead.Name, lead.ProgramType, lead.CountryOfInterest))
	m.SetBody("text/html", body)

	send := s.send
	if send == nil {
		send = s.dialAndSend
	}
	if err := send(m); err != nil {
		return eris.Wrap(err, "mail: send new lead notification")
	}
	return nil
}

func (s *EmailSender) newLeadBody(lead entity.Lead) (string, error) {
	data := newLeadEmailData{
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		CountryOfInterest: lead.CountryOfInterest,
		ProgramType:       string(lead.ProgramType),
		Major:             lead.Major,
		Message:           lead.Message,
		Source:            lead.Source,
		UTMSource:         lead.Tracking.UTMSource,
		UTMCampaign:       lead.Tracking.UTMCampaign,
		CreatedAt:         lead.CreatedAt.Format("2006-01-02 15:04 MST"),
	}
	if s.AdminURL != "" {
		data.AdminURL = s.AdminURL + "/leads/" + lead.ID
	}

	var body bytes.Buffer
	if err := newLeadTemplate.Execute(&body, data); err != nil {
		return "", eris.Wrap(err, "mail: render new lead template")
	}
	return body.String(), nil
}

func (s *EmailSender) dialAndSend(m *Message) error {
	return gomail.NewDialer(s.Host, s.Port, s.User, s.Password).DialAndSend(m)
}
