package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// connector is the slice of the driver the singleton needs. Tests swap it
// out to exercise Init and Shutdown without a server.
type connector interface {
	Dial(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)
	Ping(ctx context.Context, cli *mongo.Client) error
	Close(ctx context.Context, cli *mongo.Client) error
}

type liveConnector struct{}

func (liveConnector) Dial(_ context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return cli, nil
}

// Ping targets the primary so a reachable but read-only secondary still
// reports the store as down.
func (liveConnector) Ping(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (liveConnector) Close(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
