package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/LexCase-Intelligence/internal/interfaces/http"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/middleware"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Serve exposes the case analysis operations under /api/v1 together with
/healthz, /readyz and, when metrics are enabled, the Prometheus endpoint.
It runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			app, err := cliCtx.OpenApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			watchLogLevel(cliCtx)

			httpserver.SetMode(cfg.Server.Mode)
			router, closeRouter := buildRouter(app)
			defer closeRouter()

			srv := httpserver.NewServer(cfg.Server, router, cliCtx.Logger)
			cliCtx.Logger.Info("starting lexcase api server",
				logging.String("version", Version),
				logging.String("addr", srv.Addr()),
				logging.Bool("metrics", cfg.Metrics.Enabled))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// buildRouter wires the HTTP surface over app.  The returned func releases
// the rate limiter's cleanup goroutine.
func buildRouter(app *bootstrap.App) (http.Handler, func()) {
	cfg := app.Config
	rc := httpserver.RouterConfig{
		CaseHandler: handlers.NewCaseHandler(app.Service, app.Logger),
		HealthHandler: handlers.NewHealthHandler(Version, app.HealthCheckers()...).
			WithReporter(app.Metrics),
		RequestRecorder: app.Metrics,
		Logger:          app.Logger,
	}
	if cfg.Metrics.Enabled {
		rc.MetricsHandler = app.Collector.Handler()
		rc.MetricsPath = cfg.Metrics.Path
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSAllowedOrigins
		rc.CORS = &cors
	}

	if auth := cfg.Server.Auth; auth.Enabled {
		rc.Auth = &middleware.AuthConfig{
			Secret:      []byte(auth.HMACSecret),
			Issuer:      auth.Issuer,
			Audience:    auth.Audience,
			AdminRole:   auth.AdminRole,
			AdminRoutes: []string{http.MethodPost + " /api/v1/analyses/regenerate"},
		}
	}

	release := func() {}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst,
			middleware.DefaultRateLimitConfig().CleanupInterval)
		rc.RateLimiter = limiter
		release = limiter.Stop
	}
	return httpserver.NewRouter(rc), release
}

// watchLogLevel hot-reloads log.level from the config file, when there is
// one.  Nothing else is applied at runtime.
func watchLogLevel(cliCtx *CLIContext) {
	if cliCtx.ConfigPath == "" {
		return
	}
	log := cliCtx.Logger
	config.Watch(cliCtx.ConfigPath, func(cfg *config.Config) {
		if logging.SetLevel(log, cfg.Log.Level) {
			log.Info("log level reloaded", logging.String("level", cfg.Log.Level))
		}
	}, func(err error) {
		log.Warn("ignoring invalid config revision", logging.Err(err))
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

//Personal.AI order the ending
