// Package meta sends conversion events to the Meta Conversions API.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"
)

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTestEventCode routes events to the Events Manager "Test events" tab.
func WithTestEventCode(code string) Option {
	return func(c *Client) { c.testEventCode = code }
}

type Client struct {
	pixelID       string
	accessToken   string
	testEventCode string
	baseURL       string
	apiVersion    string
	http          *http.Client
}

func NewClient(pixelID, accessToken string, opts ...Option) *Client {
	c := &Client{
		pixelID:     pixelID,
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		apiVersion:  DefaultAPIVersion,
		http:        &http.Client{Timeout: conversion.DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "meta" }

func (c *Client) Configured() bool {
	return c.pixelID != "" && c.accessToken != ""
}

type eventsRequest struct {
	Data          []conversion.Event `json:"data"`
	TestEventCode string             `json:"test_event_code,omitempty"`
}

type eventsResponse struct {
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
}

type errorResponse struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func (c *Client) Send(ctx context.Context, events []conversion.Event) error {
	if !c.Configured() {
		return eris.New("meta: pixel id or access token not configured")
	}

	payload, err := json.Marshal(eventsRequest{Data: events, TestEventCode: c.testEventCode})
	if err != nil {
		return eris.Wrap(err, "meta: encode events")
	}

	endpoint := c.baseURL + "/" + c.apiVersion + "/" + url.PathEscape(c.pixelID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "meta: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "meta: post events")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return eris.Wrap(err, "meta: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return eris.Errorf("meta: status %d: %s (code %d, trace %s)",
				resp.StatusCode, apiErr.Error.Message, apiErr.Error.Code, apiErr.Error.FBTraceID)
		}
		return eris.Errorf("meta: status %d: %s", resp.StatusCode, string(body))
	}

	var out eventsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return eris.Wrap(err, "meta: decode response")
	}
	if out.EventsReceived != len(events) {
		return eris.Errorf("meta: sent %d events, %d received (trace %s)",
			len(events), out.EventsReceived, out.FBTraceID)
	}
	return nil
}
