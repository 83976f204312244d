// Package mongodb stores leads in a MongoDB collection.
package mongodb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client owns the driver connection. It connects on first use and retries
// on the next call if that fails.
type Client struct {
	uri            string
	database       string
	connectTimeout time.Duration

	mu     sync.Mutex
	client atomic.Pointer[mongo.Client]
}

func NewClient(uri, database string, connectTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &Client{uri: uri, database: database, connectTimeout: connectTimeout}
}

func (c *Client) Connect(ctx context.Context) (*mongo.Client, error) {
	if cl := c.client.Load(); cl != nil {
		return cl, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl := c.client.Load(); cl != nil {
		return cl, nil
	}

	opts := options.Client().
		ApplyURI(c.uri).
		SetConnectTimeout(c.connectTimeout).
		SetServerSelectionTimeout(c.connectTimeout).
		SetAppName("edconsult-leads")

	cl, err := mongo.Connect(opts)
	if err != nil {
		return nil, eris.Wrap(err, "mongodb: connect")
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, eris.Wrap(err, "mongodb: ping")
	}

	c.client.Store(cl)
	return cl, nil
}

func (c *Client) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	cl, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return cl.Database(c.database).Collection(name), nil
}

func (c *Client) Ping(ctx context.Context) error {
	cl, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	return cl.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl := c.client.Swap(nil)
	if cl == nil {
		return nil
	}
	return cl.Disconnect(ctx)
}
