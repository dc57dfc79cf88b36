// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toeirei/seatmaster/internal/backup"
	"github.com/toeirei/seatmaster/internal/core"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/devremote"
	"github.com/toeirei/seatmaster/internal/i18n"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/remote"
	"github.com/toeirei/seatmaster/internal/tui"
)

// backupFileName returns the target file for an export, appending .zst when
// missing. An empty name selects a dated default.
func backupFileName(name string, now time.Time) string {
	if name == "" {
		return fmt.Sprintf("seatmaster-backup-%s.json.zst", now.Format("2006-01-02"))
	}
	if !strings.HasSuffix(name, ".zst") {
		name += ".zst"
	}
	return name
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import a compressed (zstd) JSON backup",
	}
	export := &cobra.Command{
		Use:   "export [output-file]",
		Short: "Write all customers, tables, reservations and audit entries to a file",
		Long: `Dumps the local Seatmaster database into a single Zstandard-compressed JSON
file. '.zst' is appended to the name when missing. Without a name,
'seatmaster-backup-YYYY-MM-DD.json.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			outputFile := backupFileName(name, time.Now())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.starting"))
			f, err := os.Create(outputFile)
			if err != nil {
				return errors.New(i18n.T("backup.error_write", err))
			}
			if _, err := backup.Backup(cmd.Context(), f, svc.store); err != nil {
				_ = f.Close()
				return errors.New(i18n.T("backup.error_export", err))
			}
			if err := f.Close(); err != nil {
				return errors.New(i18n.T("backup.error_write", err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.success", outputFile))
			return nil
		},
	}
	imp := &cobra.Command{
		Use:   "import <backup-file.zst>",
		Short: "Restore a backup into the local database",
		Long: `Restores a Zstandard-compressed JSON backup. By default the backup is
integrated: rows are added or updated and nothing is deleted.

With --full, all existing data is WIPED before importing. This is not
reversible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.starting", args[0]))
			f, err := os.Open(args[0])
			if err != nil {
				return errors.New(i18n.T("restore.error_read", err))
			}
			defer func() { _ = f.Close() }()
			if _, err := backup.Restore(cmd.Context(), f, full, svc.store); err != nil {
				return errors.New(i18n.T("restore.error_import", err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.success"))
			return nil
		},
	}
	imp.Flags().Bool("full", false, "Perform a full, destructive restore (wipes all existing data first)")
	cmd.AddCommand(export, imp)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate --to-type <db-type> --to-dsn <target-dsn>",
		Short: "Copy all data from the current database into another one",
		Long: `Exports everything from the configured database and performs a full,
destructive import into the target database. Schema migrations are
applied to the target first.

Example:
  seatmaster migrate --to-type postgres --to-dsn "postgres://seatmaster@localhost/seatmaster"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetType, _ := cmd.Flags().GetString("to-type")
			targetDsn, _ := cmd.Flags().GetString("to-dsn")
			if targetType == "" || targetDsn == "" {
				return errors.New(i18n.T("migrate.error_flags"))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("migrate.starting", targetType))
			target, err := db.NewStoreFromDSN(targetType, targetDsn)
			if err != nil {
				return errors.New(i18n.T("migrate.error_target", err))
			}
			defer func() { _ = target.Close() }()
			data, err := backup.Migrate(cmd.Context(), svc.store, target)
			if err != nil {
				return errors.New(i18n.T("migrate.error_copy", err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("migrate.success", map[string]any{
				"Customers":    len(data.Customers),
				"Tables":       len(data.Tables),
				"Reservations": len(data.Reservations),
			}))
			return nil
		},
	}
	cmd.Flags().String("to-type", "", "Target database type (sqlite, postgres, mysql)")
	cmd.Flags().String("to-dsn", "", "Target database connection string")
	return cmd
}

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run engine-specific database maintenance",
		Long: `Runs maintenance for the configured database: PRAGMA optimize, VACUUM and an
integrity check on SQLite, VACUUM ANALYZE on PostgreSQL and OPTIMIZE TABLE on
MySQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("maintenance.starting", appConfig.Database.Type))
			if err := db.RunDBMaintenance(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
				return errors.New(i18n.T("maintenance.failed", err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("maintenance.done"))
			return nil
		},
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runDaemon keeps the cache in sync and runs the cleanup job until ctx ends.
func runDaemon(ctx context.Context, s *services, syncInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		syncOnce := func(ctx context.Context) {
			state, err := s.repo.Refresh(ctx)
			if err != nil {
				logging.L.Warn("periodic sync failed", "err", err)
				return
			}
			logging.L.Info("synced", "customers", len(state.Customers), "tables", len(state.Tables))
		}
		syncOnce(ctx)
		return core.RunEvery(ctx, syncInterval, syncOnce)
	})
	g.Go(func() error {
		return s.reaper.Run(ctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep the local cache in sync and clear reservations periodically",
		Long: `Runs until interrupted (SIGINT or SIGTERM). The remote data is fetched
every sync.interval and the reservation cleanup runs every
cleanup.interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			logging.L.Info("daemon started", "sync_interval", appConfig.Sync.Interval, "cleanup_interval", svc.reaper.Interval())
			err := runDaemon(ctx, svc, appConfig.Sync.Interval)
			logging.L.Info("daemon stopped")
			return err
		},
	}
}

// runTUI starts the cleanup job in the background and blocks on the TUI.
func runTUI(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() { _ = svc.reaper.Run(ctx) }()
	return tui.Run(ctx, svc.repo, svc.reserver)
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func newDevRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "devremote",
		Short:       "Development stand-in for the remote data source",
		Annotations: map[string]string{annotationNoServices: "true"},
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the customer list and table map over HTTP",
		Long: `Serves customer-list.json and table-map.json from the built-in fixture or
from --fixture, plus GET /health. Point remote.base_url at it:

  seatmaster devremote serve --addr :8089
  SEATMASTER_REMOTE_BASE_URL=http://localhost:8089 seatmaster sync`,
		Annotations: map[string]string{annotationNoServices: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			fixturePath, _ := cmd.Flags().GetString("fixture")

			fixture, err := devremote.DefaultFixture()
			if fixturePath != "" {
				fixture, err = devremote.LoadFixture(fixturePath)
			}
			if err != nil {
				return fmt.Errorf("failed to load fixture: %w", err)
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			router := devremote.NewRouter(devremote.NewServer(fixture), remote.DefaultCustomersPath, remote.DefaultTablesPath)
			return devremote.Serve(ctx, addr, router)
		},
	}
	serve.Flags().String("addr", "127.0.0.1:8089", "Listen address")
	serve.Flags().String("fixture", "", "JSON fixture file with customers and tables (default: built-in)")
	cmd.AddCommand(serve)
	return cmd
}
