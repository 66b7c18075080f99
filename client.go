package firedoc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/firedoc/internal/config"
	"github.com/kailas-cloud/firedoc/internal/db"
	dbFirestore "github.com/kailas-cloud/firedoc/internal/db/firestore"
	dbRedis "github.com/kailas-cloud/firedoc/internal/db/redis"
	documentrepo "github.com/kailas-cloud/firedoc/internal/repository/document"
	documentuc "github.com/kailas-cloud/firedoc/internal/usecase/document"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the firedoc entry point. It is safe for concurrent use.
type Client struct {
	store db.Store
	docs  *documentuc.Service
	obs   *observer
}

// New creates a Client and waits until the store answers.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("firedoc: database required (use WithFirestore or WithRedis)")
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("firedoc: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case config.DriverFirestore:
		s, err := dbFirestore.NewStore(ctx, dbFirestore.Config{
			ProjectID:       cfg.projectID,
			CredentialsFile: cfg.credentialsFile,
			EmulatorHost:    cfg.emulatorHost,
		})
		if err != nil {
			return nil, fmt.Errorf("firedoc: create firestore store: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("firedoc: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("firedoc: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	docs := documentuc.New(documentrepo.New(store), cfg.logger).
		WithLimits(cfg.defaultLimit, cfg.maxLimit)

	return &Client{store: store, docs: docs, obs: obs}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Collection returns a reference to the collection at path, e.g. "packs/base/units".
// The path is validated when the reference is used.
func (c *Client) Collection(path string) *CollectionRef {
	return &CollectionRef{client: c, path: path}
}

// CollectionGroup returns a query over every collection whose last path
// segment is id, wherever it sits in the hierarchy.
func (c *Client) CollectionGroup(id string) *Query {
	return &Query{client: c, target: id, group: true}
}
