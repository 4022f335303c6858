package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/satheeshds/invoicing/handlers"
	"github.com/satheeshds/invoicing/jobs"
)

var serveNoJobs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background scheduler",
	Long: `Start the HTTP API. Unless --no-jobs is given, the link expiry sweep and the
recurring invoice job run on their cron schedules in the same process.

Both stop on SIGINT or SIGTERM.`,
	Example: `  invoicing serve
  PORT=9090 invoicing serve --no-jobs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoJobs, "no-jobs", false, "do not run scheduled jobs in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: handlers.NewRouter(a.handler(), handlers.AuthConfig{
			User:      cfg.AuthUser,
			Pass:      cfg.AuthPass,
			JWTSecret: cfg.JWTSecret,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *jobs.Scheduler
	if !serveNoJobs {
		sched = jobs.NewScheduler(ctx, cfg.JobTimeout, a.logger)
		if err := sched.Add("sweep-expired-links", cfg.SweepSchedule, func(ctx context.Context) error {
			_, err := a.sweeper.Run(ctx)
			return err
		}); err != nil {
			return err
		}
		if err := sched.Add("recurring-invoices", cfg.RecurringSchedule, func(ctx context.Context) error {
			_, err := a.recurring.Run(ctx)
			return err
		}); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if sched != nil {
		sched.Start()
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if sched != nil {
			sched.Stop(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
