// Package gtm forwards conversion events to a server-side Google Tag
// Manager relay, which fans them out to Google Ads and GA4.
package gtm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

type Client struct {
	relayURL string
	apiKey   string
	http     *http.Client
}

func NewClient(relayURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		relayURL: relayURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: conversion.DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "gtm" }

// Configured needs only the relay URL; the key is optional for relays
// that sit on a private network.
func (c *Client) Configured() bool {
	return c.relayURL != ""
}

type relayRequest struct {
	Data []conversion.Event `json:"data"`
}

func (c *Client) Send(ctx context.Context, events []conversion.Event) error {
	if !c.Configured() {
		return eris.New("gtm: relay url not configured")
	}

	payload, err := json.Marshal(relayRequest{Data: events})
	if err != nil {
		return eris.Wrap(err, "gtm: encode events")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "gtm: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "gtm: post events")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return eris.Errorf("gtm: status %d: %s", resp.StatusCode, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
