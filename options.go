package firedoc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/firedoc/internal/config"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver string

	// firestore
	projectID       string
	credentialsFile string
	emulatorHost    string

	// redis
	addrs     []string
	password  string
	keyPrefix string

	readinessTimeout time.Duration
	defaultLimit     int
	maxLimit         int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithFirestore connects the client to Cloud Firestore in the given project.
// Credentials come from the environment unless WithCredentialsFile is set.
func WithFirestore(projectID string) Option {
	return func(c *clientConfig) {
		c.driver = config.DriverFirestore
		c.projectID = projectID
	}
}

// WithCredentialsFile sets a service account key file for Firestore.
func WithCredentialsFile(path string) Option {
	return func(c *clientConfig) {
		c.credentialsFile = path
	}
}

// WithEmulator routes Firestore traffic to an emulator ("localhost:8080").
func WithEmulator(host string) Option {
	return func(c *clientConfig) {
		c.emulatorHost = host
	}
}

// WithRedis connects the client to Redis or Valkey with the JSON module.
// More than one address enables cluster mode.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithKeyPrefix namespaces Redis keys. Default: "firedoc:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithReadinessTimeout bounds how long New waits for the store. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.readinessTimeout = d
	}
}

// WithLimits sets the default and maximum number of documents a read returns.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(c *clientConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	}
}

// WithLogger enables structured logging, including rejected queries.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}
