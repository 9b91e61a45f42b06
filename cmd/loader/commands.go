package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/imdbloader/internal/config"
	"github.com/user/imdbloader/internal/logger"
	"github.com/user/imdbloader/internal/repository"
	"github.com/user/imdbloader/internal/service"
	"github.com/user/imdbloader/internal/utils"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Full run: people, movies with genres, cast links, then index restore and verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.pipeline().Run(ctx)
			return a.finish(cmd, report, err)
		},
	}
}

func newCastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cast",
		Short: "Reload cast links only, checked against the movies and people already stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.pipeline().RunCastOnly(ctx)
			return a.finish(cmd, report, err)
		},
	}
}

func newRestoreIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore-indexes",
		Short: "Recreate the secondary indexes and refresh planner statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.pipeline().RestoreIndexes(ctx)
			return a.finish(cmd, report, err)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
			dsn, err := cfg.DSN()
			if err != nil {
				return err
			}
			return repository.Migrate(dsn, logger.Component(log, "migrate"))
		},
	}
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the IMDb datasets into the configured data files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutDatabase()
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

			client := utils.NewHTTPClient(cfg.DownloadTimeout)
			targets := service.FetchTargets(service.OptionsFromConfig(cfg))
			results, err := service.FetchDatasets(cmd.Context(), client, cfg.DatasetBaseURL, targets, log)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATASET\tFILE\tBYTES\tTIME")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Dataset, r.Dest, r.Bytes, r.Duration.Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}
}
