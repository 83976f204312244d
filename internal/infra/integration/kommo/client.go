// Package kommo pushes captured leads into the Kommo CRM so counsellors can
// work them from their pipeline.
package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPipeline places new leads in a specific pipeline stage.
func WithPipeline(pipelineID, statusID int) Option {
	return func(c *Client) {
		c.pipelineID = pipelineID
		c.statusID = statusID
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l.Named("kommo") }
}

type Client struct {
	baseURL    string
	apiToken   string
	pipelineID int
	statusID   int
	http       *http.Client
	logger     *zap.Logger
}

// NewClient takes the account API root, e.g. https://acme.kommo.com/api/v4.
func NewClient(baseURL, apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   zap.L().Named("kommo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.apiToken != ""
}

// NotifyNewLead creates a CRM lead linked to the person's contact, reusing
// an existing contact when one matches the phone number.
func (c *Client) NotifyNewLead(lead entity.Lead) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	contactID, err := c.findOrCreateContact(ctx, lead)
	if err != nil {
		return eris.Wrap(err, "kommo: contact")
	}

	req := []leadRequest{{
		Name:       fmt.Sprintf("%s - %s %s", lead.Name, lead.ProgramType, lead.CountryOfInterest),
		PipelineID: c.pipelineID,
		StatusID:   c.statusID,
		Embedded: leadEmbedded{
			Tags:     leadTags(lead),
			Contacts: []entityRef{{ID: contactID}},
		},
	}}

	var out embeddedIDs
	if err := c.do(ctx, http.MethodPost, "/leads", req, &out); err != nil {
		return eris.Wrap(err, "kommo: create lead")
	}
	if len(out.Embedded.Leads) == 0 {
		return eris.New("kommo: create lead: empty response")
	}

	c.logger.Info("crm lead created",
		zap.String("lead_id", lead.ID),
		zap.Int("kommo_lead_id", out.Embedded.Leads[0].ID),
		zap.Int("kommo_contact_id", contactID),
	)
	return nil
}

func leadTags(lead entity.Lead) []tag {
	tags := []tag{{Name: "website_lead"}, {Name: string(lead.ProgramType)}}
	if lead.Tracking.UTMSource != "" {
		tags = append(tags, tag{Name: lead.Tracking.UTMSource})
	}
	return tags
}

func (c *Client) findOrCreateContact(ctx context.Context, lead entity.Lead) (int, error) {
	var found embeddedIDs
	err := c.do(ctx, http.MethodGet, "/contacts?query="+url.QueryEscape(lead.Phone), nil, &found)
	if err != nil {
		return 0, err
	}
	if len(found.Embedded.Contacts) > 0 {
		return found.Embedded.Contacts[0].ID, nil
	}

	req := []contactRequest{{
		Name: lead.Name,
		CustomFields: []customField{
			{FieldCode: "PHONE", Values: []customFieldValue{{Value: lead.Phone, EnumCode: "WORK"}}},
			{FieldCode: "EMAIL", Values: []customFieldValue{{Value: lead.Email, EnumCode: "WORK"}}},
		},
	}}
	var created embeddedIDs
	if err := c.do(ctx, http.MethodPost, "/contacts", req, &created); err != nil {
		return 0, err
	}
	if len(created.Embedded.Contacts) == 0 {
		return 0, eris.New("no contact id in response")
	}
	return created.Embedded.Contacts[0].ID, nil
}

// do sends a JSON request. Kommo answers 204 with no body when a search
// matches nothing, which leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "encode request")
		}
		r = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return eris.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
