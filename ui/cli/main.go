// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Seatmaster
// application using the Cobra library. It defines the root command, the
// shared flags, configuration loading and the main entry point for execution.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/toeirei/seatmaster/internal/config"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/i18n"
	"github.com/toeirei/seatmaster/internal/logging"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// annotationNoServices marks commands that run without config, database or
// remote wiring (version, devremote).
const annotationNoServices = "seatmaster/no-services"

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	// Load optional config file argument from cli
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := config.Defaults()
	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it specifically.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run, or the config file was deleted. Create a default one.
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			// The app can run on defaults.
			logging.Warnf("could not write default config file: %v", writeErr)
		} else {
			logging.L.Info("wrote default config to user config path")
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Empty values in the user's file fall back to the defaults.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	if appConfig.Log.Level != "" {
		if err := logging.SetLevel(appConfig.Log.Level); err != nil {
			logging.Warnf("%v", err)
		}
	}
	if verbose {
		_ = logging.SetLevel("debug")
	}

	i18n.Init(appConfig.Language)

	// Tests may have initialized the database already.
	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	svc = newServices(appConfig, db.DefaultStore())
	return nil
}

// Execute runs the CLI entrypoint. The main package should call this
// function and handle process exit.
func Execute() error {
	rootCmd := NewRootCmd()
	defer func() {
		if st := db.DefaultStore(); st != nil {
			if err := st.Close(); err != nil {
				logging.Errorf("error closing database: %v", err)
			}
		}
	}()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// pflag panics on duplicate definitions, so check first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./seatmaster.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}

		if path == "" {
			return nil, nil
		}

		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seatmaster",
		Short: "Seatmaster helps waitstaff seat customers at free tables.",
		Long: `Seatmaster keeps a local copy of the restaurant's customer list and
table map, fetched from a remote source, and lets waitstaff reserve a
free table for a customer. Reservations expire and are cleared
periodically so tables become free again.

Running without a subcommand on a terminal launches the interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), compositeVersion())
				os.Exit(0)
			}
			if verbose {
				db.SetDebug(true)
			}
			if cmd.Annotations[annotationNoServices] == "true" {
				return nil
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return cmd.Help()
			}
			return runTUI(cmd)
		},
	}

	cmd.Version = compositeVersion()

	// Define flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logs, including DB logs)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Display language ("en", "de")`)
	applyDefaultFlags(cmd)

	versionCmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: map[string]string{annotationNoServices: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "version: %s\n", v)
			_, _ = fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				_, _ = fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}

	subcommands := []*cobra.Command{
		newCustomersCmd(),
		newTablesCmd(),
		newReserveCmd(),
		newReservationsCmd(),
		newCleanupCmd(),
		newSyncCmd(),
		newDaemonCmd(),
		newTUICmd(),
		newAuditCmd(),
		newBackupCmd(),
		newMigrateCmd(),
		newMaintenanceCmd(),
		newDevRemoteCmd(),
	}
	for _, sc := range subcommands {
		applyDefaultFlags(sc)
	}
	cmd.AddCommand(subcommands...)
	cmd.AddCommand(versionCmd)

	return cmd
}

// compositeVersion renders version, commit and build date on one line.
func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		} else {
			// When built as a dependency, the main module may be (devel) while
			// our module shows up in Deps with a pseudo-version.
			for _, dep := range info.Deps {
				if dep != nil && dep.Path == "github.com/toeirei/seatmaster" && dep.Version != "" && dep.Version != "(devel)" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
