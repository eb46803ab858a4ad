package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockqueue/mailer/internal/config"
	"github.com/blockqueue/mailer/internal/handler"
	"github.com/blockqueue/mailer/internal/logger"
	"github.com/blockqueue/mailer/internal/middleware"
	"github.com/blockqueue/mailer/internal/ratelimit"
	"github.com/blockqueue/mailer/internal/render"
	"github.com/blockqueue/mailer/internal/router"
	"github.com/blockqueue/mailer/internal/service"
	"github.com/blockqueue/mailer/internal/template"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "mailer",
		Short:        "Template-based email dispatch gateway",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP gateway",
			RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the config file and template directory, then exit",
			RunE:  func(cmd *cobra.Command, args []string) error { return validate() },
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting mailer gateway")

	templates, err := template.Load(cfg.Templates.Dir, cfg.Defaults.Renderer, log)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	log.Info().Int("count", templates.Len()).Msg("templates loaded")

	var limiter *ratelimit.Store
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewStore(
			ratelimit.Window{
				Max:  cfg.RateLimit.MaxRequests,
				Span: time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute,
			},
			ratelimit.Window{
				Max:  cfg.RateLimit.MaxRequestsPerHour,
				Span: time.Duration(cfg.RateLimit.WindowHours) * time.Hour,
			},
		)
	}

	renderers := render.NewRegistry(cfg.MJML, log)
	svc := service.New(cfg, templates, renderers, log)
	h := handler.New(cfg, svc, templates, log)
	mw := middleware.New(cfg, limiter, log)
	r := router.New(h, mw)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// validate loads the config and templates the same way serve does and
// reports what it found, without starting the server.
func validate() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Printf("config ok: %d account(s), auth type %q\n", len(cfg.Accounts), cfg.Auth.Type)

	log := logger.New("warn", "console")
	templates, err := template.Load(cfg.Templates.Dir, cfg.Defaults.Renderer, log)
	if err != nil {
		return fmt.Errorf("templates invalid: %w", err)
	}
	fmt.Printf("templates ok: %d loaded from %s\n", templates.Len(), cfg.Templates.Dir)
	for _, failure := range templates.Failures() {
		fmt.Printf("template %q failed to load: %v\n", failure.ID, failure.Err)
	}
	if len(templates.Failures()) > 0 {
		return fmt.Errorf("%d template(s) failed to load", len(templates.Failures()))
	}
	return nil
}
