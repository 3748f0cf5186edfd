// Package cli implements attendctl, the operator tool for bootstrapping
// accounts and printing reports straight from the database.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"attendance-tracker/internal/config"
	"attendance-tracker/internal/repository/sqlite"
	"attendance-tracker/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Env is what commands operate on.
type Env struct {
	Users    service.UserService
	Reports  service.ReportService
	Location *time.Location
	Close    func() error
}

// Opener builds an Env for one command invocation.
type Opener func(ctx context.Context, opts *RootOptions, log *logrus.Entry) (*Env, error)

// NewRootCommand creates the root command. A nil opener uses the configured
// sqlite database.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenDatabase
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "attendctl",
		Short: "Attendance tracker operator tool",
		Long:  "Bootstrap accounts and print attendance reports directly against the attendance database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "sqlite database path (defaults to the configured database.path)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewUserCommand(opts, open))
	cmd.AddCommand(NewReportCommand(opts, open))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newLogger(w io.Writer, verbose bool) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(l)
}

// OpenDatabase opens and migrates the configured database.
func OpenDatabase(ctx context.Context, opts *RootOptions, log *logrus.Entry) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	path := opts.DBPath
	if path == "" {
		path = cfg.Database.Path
	}
	log.WithField("path", path).Debug("opening database")

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	users := sqlite.NewUserRepository(db)
	records := sqlite.NewRecordRepository(db, loc)
	return &Env{
		Users: service.NewUserService(users, service.UserServiceConfig{
			RegisterSecret: cfg.Auth.RegisterSecret,
			EmailDomain:    cfg.Users.EmailDomain,
		}, log),
		Reports:  service.NewReportService(records),
		Location: loc,
		Close:    db.Close,
	}, nil
}
