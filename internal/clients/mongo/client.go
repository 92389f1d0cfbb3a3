package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"crypto-pulse/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never succeeded.
	ErrNotInitialized = errors.New("mongo client is not initialized")
	// ErrShutdown is returned by Shutdown once the client is already closed.
	ErrShutdown = errors.New("mongo client is already shut down")
)

type clientState int

const (
	stateIdle clientState = iota
	stateUp
	stateDown
)

var (
	conn   connector = liveConnector{}
	client *mongo.Client
	db     *mongo.Database
	state  clientState
	mu     sync.Mutex
)

// Init connects to MongoDB and pings the primary. The first successful call
// wins and later calls return the same handles; a failed call leaves nothing
// cached so the caller may retry.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if state == stateUp {
		return client, db, nil
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second).
		SetAppName("crypto-pulse")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := conn.Dial(ctx, opts)
	if err != nil {
		log.Error("mongo connect failed", "error", err)
		return nil, nil, err
	}

	if err := conn.Ping(ctx, cli); err != nil {
		log.Error("mongo ping failed", "error", err)
		_ = conn.Close(ctx, cli)
		return nil, nil, err
	}

	client = cli
	db = cli.Database(cfg.MongoDBName)
	state = stateUp

	log.Info("connected to mongo", "db", cfg.MongoDBName)
	return client, db, nil
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Ping checks the live connection; used by the health endpoint.
func Ping(ctx context.Context) error {
	mu.Lock()
	cli := client
	mu.Unlock()

	if cli == nil {
		return ErrNotInitialized
	}
	return conn.Ping(ctx, cli)
}

// Shutdown disconnects the client. Safe to call more than once.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	switch state {
	case stateIdle:
		state = stateDown
		return ErrNotInitialized
	case stateDown:
		return ErrShutdown
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := conn.Close(ctx, client)
	client = nil
	db = nil
	state = stateDown
	return err
}
