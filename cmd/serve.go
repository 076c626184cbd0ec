package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/api"
	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/storage"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serves the generation API: project uploads, single and batch generation,
validation, PDF/HTML rendering and recorded metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), port, watch)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured port")
	cmd.Flags().BoolVar(&watch, "watch-prompts", false, "Reload the prompts file when it changes")
	return cmd
}

func runServe(ctx context.Context, port int, watch bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if port > 0 {
		cfg.Server.Port = port
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := storage.NewLocalStore(cfg.Storage.ProjectsDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobMgr := jobs.NewManager(a.generator, jobs.Options{
		MaxConcurrent: cfg.Jobs.MaxConcurrent,
		Validate:      cfg.Generation.EnableValidation,
		Recorder:      a.recorder(),
	}, a.logger)

	// Start background job cleanup
	go func() {
		ticker := time.NewTicker(cfg.JobCleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := jobMgr.CleanupOldJobs(cfg.JobRetention()); n > 0 {
					a.logger.WithField("removed", n).Debug("Cleaned up finished jobs")
				}
			}
		}
	}()

	if (watch || cfg.Generation.WatchPrompts) && cfg.Generation.PromptsFile != "" {
		go func() {
			if err := a.prompts.Watch(ctx, cfg.Generation.PromptsFile, 200*time.Millisecond); err != nil {
				a.logger.WithError(err).Warn("Prompt watcher stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg)

	handlers := api.NewHandlers(&api.Dependencies{
		Config:     cfg,
		Store:      store,
		Parsers:    a.parsers,
		Prompts:    a.prompts,
		Generators: a.generator,
		Metrics:    a.metricsStore(),
		Rates:      a.rateSource(),
		Jobs:       jobMgr,
		Version:    Version,
		Logger:     a.logger,
	})
	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	backend := "mock"
	if cfg.HasCredential() {
		backend = "openai (" + cfg.OpenAI.Model + ")"
	}
	if cfg.Generation.Provider != "" {
		backend = cfg.Generation.Provider
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Test Procedure Generator                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Backend:    %-45s║\n", backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", cfgFile)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	if err := jobMgr.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Jobs still running at shutdown")
	}
	return nil
}
