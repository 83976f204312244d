package gtm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
)

func TestSend_PostsEventsToRelay(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer relay-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Data []conversion.Event `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "evt-9", body.Data[0].EventID)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/collect", "relay-key")
	err := c.Send(context.Background(), []conversion.Event{{EventName: conversion.EventLead, EventID: "evt-9"}})
	assert.NoError(t, err)
}

func TestSend_Non2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Send(context.Background(), []conversion.Event{{EventName: conversion.EventLead}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	assert.False(t, NewClient("", "key").Configured())
	assert.True(t, NewClient("https://relay.example.com/collect", "").Configured())
}
