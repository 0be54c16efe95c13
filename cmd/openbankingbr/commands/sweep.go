package commands

import (
	"log/slog"

	"github.com/obrdata/openbankingbr/internal/cache"
	"github.com/obrdata/openbankingbr/internal/constants"
	"github.com/spf13/cobra"
)

func installSweepCmd(app *App) {
	var maxAge uint

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove old entries from the response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running sweep command")
			return app.sweepRun(maxAge)
		},
	}
	sweepCmd.Flags().UintVar(&maxAge, "max-age", constants.DefaultCacheMaxAge, "age in days past which cache entries are removed")

	app.cmd.AddCommand(sweepCmd)
}

func (a App) sweepRun(maxAge uint) error {
	store, err := cache.New(a.config.CacheDir)
	if err != nil {
		return err
	}

	removed, err := store.Sweep(maxAge)
	if err != nil {
		return err
	}

	slog.Info("Cache sweep finished", "dir", a.config.CacheDir, "removed", removed)
	return nil
}
