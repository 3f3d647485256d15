package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Client owns the database handle shared by the repositories.
type Client struct {
	DB *mongo.Database
}

// New connects to the cluster and verifies it is reachable before returning.
// Retryable writes stay enabled; the repositories rely on them together with
// session transactions.
func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Client{DB: conn.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}
