package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/obrdata/openbankingbr/internal/database"
	"github.com/spf13/cobra"
)

func installIngestCmd(app *App) {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Download the public data of every participant and insert it into PostgreSQL",
		Long: "Walks the Open Banking Brasil directory the same way the batch command does, " +
			"but inserts one row per entity into the configured PostgreSQL database instead of " +
			"writing CSV files.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running ingest command")
			return app.ingestRun()
		},
	}

	app.cmd.AddCommand(ingestCmd)
}

func (a App) ingestRun() error {
	client, err := a.newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, a.config.DBconfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	_, err = db.Ingest(ctx, client, a.config.IgnoreErrors)
	return err
}
