package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/obrdata/openbankingbr/internal/cache"
	"github.com/obrdata/openbankingbr/internal/fetcher"
	"github.com/obrdata/openbankingbr/internal/openbanking"
	"github.com/obrdata/openbankingbr/internal/reports"
	"github.com/spf13/cobra"
)

func installBatchCmd(app *App) {
	var only []string

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Download the public data of every participant and write the CSV reports",
		Long: "Walks the Open Banking Brasil directory, downloads the public data every participant " +
			"publishes and writes the dated CSV report files into the data directory. " +
			"Responses are cached on disk, one download per endpoint per day.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running batch command")
			return app.batchRun(only)
		},
	}
	batchCmd.Flags().StringSliceVar(&only, "only", nil, "restrict the run to the named reports (agencias, produtos, servicos, pacotes)")

	app.cmd.AddCommand(batchCmd)
}

func (a App) batchRun(only []string) error {
	requested := make([]reports.Report, 0, len(only))
	for _, name := range only {
		r, err := reports.ParseReport(name)
		if err != nil {
			return err
		}
		requested = append(requested, r)
	}

	client, err := a.newClient()
	if err != nil {
		return err
	}

	e, err := reports.New(client, a.config.DataDir,
		reports.WithDelimiter(a.config.Delimiter),
		reports.WithEncoding(a.config.Encoding),
		reports.WithIgnoreErrors(a.config.IgnoreErrors),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return e.Run(ctx, requested...)
}

// newClient assembles the cached fetch pipeline behind a directory client.
func (a App) newClient() (*openbanking.Client, error) {
	store, err := cache.New(a.config.CacheDir)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(store, fetcher.WithTimeout(time.Duration(a.config.Timeout)*time.Second))
	return openbanking.New(f, openbanking.WithDirectoryURL(a.config.DirectoryURL)), nil
}
