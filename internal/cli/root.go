// Package cli implements firedocctl, the operator command line for firedoc.
package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kailas-cloud/firedoc"
	"github.com/kailas-cloud/firedoc/internal/config"
	"github.com/kailas-cloud/firedoc/internal/logger"
)

// EnvPrefix prefixes environment overrides: FIREDOC_FORMAT, FIREDOC_DATABASE_PROJECT_ID.
const EnvPrefix = "FIREDOC"

// Viper keys. Flags and FIREDOC_* variables both map onto these.
const (
	keyEnv          = "env"
	keyFormat       = "format"
	keyDriver       = "database.driver"
	keyProjectID    = "database.project_id"
	keyEmulatorHost = "database.emulator_host"
	keyAddrs        = "database.addrs"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Env    string
	Format string

	v *viper.Viper
	// connect opens a client; tests swap it for one backed by a fake store.
	connect func(ctx context.Context, opts *RootOptions) (*firedoc.Client, error)
}

// NewRootCommand creates the root command for firedocctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{connect: connect})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	opts.v = v

	cmd := &cobra.Command{
		Use:   "firedocctl",
		Short: "Operate on firedoc document collections",
		Long: `firedocctl reads, writes and queries hierarchical document collections
stored in Firestore or Redis, and checks where-clause lists offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.Env = v.GetString(keyEnv)
			opts.Format = v.GetString(keyFormat)
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("env", config.GetEnv(), "config environment (config/<env>.yaml)")
	pf.String("format", FormatText, "output format (text|json)")
	pf.String("driver", "", "database driver override (firestore|redis)")
	pf.String("project", "", "firestore project override")
	pf.String("emulator", "", "firestore emulator host override")
	pf.StringSlice("redis-addr", nil, "redis address override (repeatable)")

	mustBind(v, keyEnv, pf.Lookup("env"))
	mustBind(v, keyFormat, pf.Lookup("format"))
	mustBind(v, keyDriver, pf.Lookup("driver"))
	mustBind(v, keyProjectID, pf.Lookup("project"))
	mustBind(v, keyEmulatorHost, pf.Lookup("emulator"))
	mustBind(v, keyAddrs, pf.Lookup("redis-addr"))

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// mustBind panics on a nil flag, which only happens on a typo above.
func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// formatter returns an OutputFormatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// databaseConfig loads config/<env>.yaml when present and applies flag and
// environment overrides on top.
func (o *RootOptions) databaseConfig() config.DatabaseConfig {
	var db config.DatabaseConfig
	if cfg, err := config.Load(o.Env); err == nil {
		db = cfg.Database
	}
	if s := o.v.GetString(keyDriver); s != "" {
		db.Driver = s
	}
	if s := o.v.GetString(keyProjectID); s != "" {
		db.ProjectID = s
	}
	if s := o.v.GetString(keyEmulatorHost); s != "" {
		db.EmulatorHost = s
	}
	if addrs := o.v.GetStringSlice(keyAddrs); len(addrs) > 0 {
		db.Addrs = addrs
	}
	if db.Driver == "" {
		db.Driver = config.DriverFirestore
	}
	return db
}

func connect(ctx context.Context, o *RootOptions) (*firedoc.Client, error) {
	db := o.databaseConfig()

	log, err := logger.NewLogger(o.Env, "warn")
	if err != nil {
		log = zap.NewNop()
	}

	opts := []firedoc.Option{firedoc.WithLogger(log)}
	switch db.Driver {
	case config.DriverRedis:
		opts = append(opts,
			firedoc.WithRedis(db.Addrs...),
			firedoc.WithPassword(db.Password),
			firedoc.WithKeyPrefix(db.KeyPrefix),
		)
	default:
		opts = append(opts,
			firedoc.WithFirestore(db.ProjectID),
			firedoc.WithCredentialsFile(db.CredentialsFile),
			firedoc.WithEmulator(db.EmulatorHost),
		)
	}
	if db.ReadinessTimeout > 0 {
		opts = append(opts, firedoc.WithReadinessTimeout(time.Duration(db.ReadinessTimeout)*time.Second))
	}

	client, err := firedoc.New(ctx, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect", err)
	}
	return client, nil
}
