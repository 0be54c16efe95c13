// Package commands contains the commands of the openbankingbr batch tool.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/obrdata/openbankingbr/internal/cli"
	"github.com/obrdata/openbankingbr/internal/constants"
	"github.com/obrdata/openbankingbr/internal/database"
	"github.com/obrdata/openbankingbr/internal/openbanking"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	JSONLogs  bool

	DataDir      string
	CacheDir     string
	DirectoryURL string
	Delimiter    string
	Encoding     string
	IgnoreErrors bool
	Timeout      uint // seconds

	DBconfig      database.Config
	MigrationsDir string

	ConfigPath string
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{}

	a.cmd = &cobra.Command{
		Use:           constants.CmdName + " [COMMAND]",
		Short:         "Open Banking Brasil public data batch tool",
		Long: "Downloads the public data published by the participants of the Open Banking Brasil " +
			"directory and turns it into CSV reports or PostgreSQL rows.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Debug("Got app config", "config", a.config)

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Update logging after loading config if necessary
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	installBatchCmd(&a)
	installSweepCmd(&a)
	installIngestCmd(&a)
	installMigrateCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")

	cmd.PersistentFlags().StringVar(&app.config.DataDir, "data-dir", constants.GetDefaultDataPath(), "directory receiving the report files")
	cmd.PersistentFlags().StringVar(&app.config.CacheDir, "cache-dir", constants.GetDefaultCachePath(), "directory holding the response cache")
	cmd.PersistentFlags().StringVar(&app.config.DirectoryURL, "directory-url", openbanking.DirectoryURL, "participant directory URL")
	cmd.PersistentFlags().StringVar(&app.config.Delimiter, "delimiter", constants.DefaultCSVDelimiter, "CSV field delimiter")
	cmd.PersistentFlags().StringVar(&app.config.Encoding, "encoding", constants.DefaultCSVEncoding, "report text encoding (utf-8, cp1252, latin1)")
	cmd.PersistentFlags().BoolVar(&app.config.IgnoreErrors, "ignore-errors", false, "log and skip over participant failures instead of aborting")
	cmd.PersistentFlags().UintVar(&app.config.Timeout, "timeout", constants.DefaultHTTPTimeout, "per-request timeout in seconds")

	addDBFlags(cmd, &app.config.DBconfig)

	if err := cmd.MarkPersistentFlagDirname("data-dir"); err != nil {
		panic(fmt.Sprintf("failed to mark data-dir flag as directory: %v", err))
	}
	if err := cmd.MarkPersistentFlagDirname("cache-dir"); err != nil {
		panic(fmt.Sprintf("failed to mark cache-dir flag as directory: %v", err))
	}
}

func addDBFlags(cmd *cobra.Command, config *database.Config) {
	cmd.PersistentFlags().StringVar(&config.Host, "db-host", "", "database host")
	cmd.PersistentFlags().IntVar(&config.Port, "db-port", 5432, "database port")
	cmd.PersistentFlags().StringVar(&config.User, "db-user", "", "database user")
	cmd.PersistentFlags().StringVar(&config.Password, "db-password", "", "database password")
	cmd.PersistentFlags().StringVar(&config.DBName, "db-name", "", "database name")
	cmd.PersistentFlags().StringVar(&config.SSLMode, "db-sslmode", "", "database SSL mode")
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}
