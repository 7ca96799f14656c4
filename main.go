package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/trialsites/config"
	"github.com/giygas/trialsites/converter"
	"github.com/giygas/trialsites/data"
	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/metrics"
	"github.com/giygas/trialsites/scheduler"
	"github.com/giygas/trialsites/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// app carries what the commands share once the root pre-run has loaded it
type app struct {
	cfg       *config.Config
	verbose   bool
	analysis  string
	sheetName string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "trialsites <infile> <outfile>",
		Short: "Pivot a ClinicalTrials.gov export by study location",
		Long: `trialsites reads a tab separated ClinicalTrials.gov export and writes an
xlsx workbook listing, for every institution, its country and the studies
it takes part in.

Configuration comes from the environment, optionally loaded from a .env file.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0], args[1])
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&a.analysis, "analysis", "a", "",
		fmt.Sprintf("Sheet layout, one of %v (default from DEFAULT_ANALYSIS)", converter.Analyses()))
	rootCmd.PersistentFlags().StringVar(&a.sheetName, "sheet", "", "Worksheet name (default from SHEET_NAME)")

	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newScheduleCmd())

	return rootCmd
}

// setup loads .env and the configuration and initializes the logger
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.InitLogger(cfg, cmd.ErrOrStderr(), a.verbose)
	return nil
}

// options resolves the conversion options from flags and configuration
func (a *app) options() (converter.Options, error) {
	name := a.analysis
	if name == "" {
		name = a.cfg.DefaultAnalysis
	}
	analysis, err := converter.ParseAnalysis(name)
	if err != nil {
		return converter.Options{}, err
	}

	sheetName := a.sheetName
	if sheetName == "" {
		sheetName = a.cfg.SheetName
	}

	return converter.Options{Analysis: analysis, SheetName: sheetName}, nil
}

func (a *app) runConvert(cmd *cobra.Command, inPath, outPath string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}

	result, err := converter.NewDefault().ConvertFile(inPath, outPath, opts)
	a.writeMetrics()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d studies, %d locations written to %s\n",
		result.Studies, result.Locations, outPath)
	return nil
}

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Long:  `Starts an HTTP server: POST an export to /convert to receive the workbook.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.analysis != "" {
				if _, err := converter.ParseAnalysis(a.analysis); err != nil {
					return err
				}
				a.cfg.DefaultAnalysis = a.analysis
			}
			if a.sheetName != "" {
				a.cfg.SheetName = a.sheetName
			}

			srv := server.NewServer(a.cfg, converter.NewDefault(), data.NewRunContainer())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}

func (a *app) newScheduleCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "schedule <infile> <outfile>",
		Short: "Convert now, then again every day at fixed times",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}

			s := scheduler.NewScheduler(data.NewRunContainer(), converter.NewDefault(), scheduler.Job{
				Input:   args[0],
				Output:  args[1],
				Options: opts,
				At:      at,
			})
			if err := s.Start(); err != nil {
				a.writeMetrics()
				return err
			}
			a.writeMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logging.Info("Stopping scheduler...")
			s.Stop()
			a.writeMetrics()
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", scheduler.DefaultTimes, "Daily conversion times, semicolon separated HH:MM")
	return cmd
}

// writeMetrics dumps the metrics to METRICS_FILE when it is set
func (a *app) writeMetrics() {
	if a.cfg == nil || a.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		logging.Warn("Failed to write metrics file", "error", err)
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
