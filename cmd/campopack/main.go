package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/campopack/campopack-web/cmd/campopack/cli"
	"github.com/campopack/campopack-web/internal/app"
	"github.com/campopack/campopack-web/internal/contact"
	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/inquiry"
	"github.com/campopack/campopack-web/internal/observability"
	"github.com/campopack/campopack-web/internal/pages"
	"github.com/campopack/campopack-web/internal/platform/cache"
	"github.com/campopack/campopack-web/internal/relay"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/internal/view"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root := &cobra.Command{
		Use:           "campopack",
		Short:         "Campo-Pack website",
		Long:          `Serves the Campo-Pack brochure site and relays quote requests to the sales inbox.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.AddCommand(serveCmd, cli.NewContentCommand(), cli.NewRelayCommand())
	return root
}

func serve(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	site, err := loadSite(cfg)
	if err != nil {
		return err
	}
	logger.Info("content loaded", slog.String("variant", site.Variant), slog.String("relay", site.Relay.URL))

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "campopack_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	relayClient, err := relay.NewClient(site.Relay.URL, cfg.RelayTimeout, relay.WithObserver(metrics))
	if err != nil {
		return fmt.Errorf("relay client: %w", err)
	}

	templates, err := view.NewEngine(site)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	pagesHandler := pages.NewHandler(logger, templates, site)
	contactHandler := contact.NewHandler(logger, templates, site, relayClient, csrfManager,
		contact.WithObserver(func(o inquiry.Outcome) { metrics.ObserveInquiry(string(o)) }),
		contact.WithSubmitLimit(cfg.ContactRateLimit),
	)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Site:           site,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		Pages:          pagesHandler,
		Contact:        contactHandler,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// loadSite resolves the content document and applies the relay override.
func loadSite(cfg *app.Config) (*content.Site, error) {
	var (
		site *content.Site
		err  error
	)
	if cfg.SiteContentFile != "" {
		site, err = content.LoadFile(cfg.SiteContentFile)
	} else {
		site, err = content.Load(cfg.SiteVariant)
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if cfg.RelayURL != "" {
		site.Relay.URL = cfg.RelayURL
		if err := site.Validate(); err != nil {
			return nil, fmt.Errorf("relay override: %w", err)
		}
	}
	return site, nil
}
