// Package firestore implements db.Store on Google Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/firedoc/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// emulatorHostEnv is read by the Firestore client to route traffic to the emulator.
const emulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Ping reads this document; a NotFound answer proves the backend is reachable.
const (
	pingCollection = "_firedoc"
	pingDocument   = "ping"
)

// Config holds connection parameters for a Firestore store.
type Config struct {
	ProjectID       string
	CredentialsFile string
	// EmulatorHost ("localhost:8080") switches the client to the Firestore emulator.
	EmulatorHost string
}

// Store implements db.Store on a Firestore client.
type Store struct {
	client *firestore.Client
}

// NewStore opens a Firestore client for the configured project.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		if err := os.Setenv(emulatorHostEnv, cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("set emulator host: %w", err)
		}
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity with a point read.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(pingCollection).Doc(pingDocument).Get(ctx)
	if err != nil && !isNotFound(err) {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the client connection.
func (s *Store) Close() {
	_ = s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// storeErr maps NotFound to db.ErrKeyNotFound and tags everything else with op.
func storeErr(op string, err error) error {
	if isNotFound(err) {
		return db.ErrKeyNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &db.Error{Op: op, Err: err}
}
