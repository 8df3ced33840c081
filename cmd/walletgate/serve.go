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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/adapters/events"
	"github.com/layer-3/walletgate/adapters/metrics"
	"github.com/layer-3/walletgate/adapters/profiles"
	"github.com/layer-3/walletgate/adapters/signer"
	"github.com/layer-3/walletgate/adapters/store"
	"github.com/layer-3/walletgate/internal/config"
	"github.com/layer-3/walletgate/internal/logging"
	"github.com/layer-3/walletgate/ports"
	"github.com/layer-3/walletgate/service"
	transport "github.com/layer-3/walletgate/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), *configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// backend bundles the state that is either in memory or shared through Redis
type backend struct {
	challenges ports.ChallengeStore
	sessions   ports.SessionStore
	publisher  message.Publisher
	close      func() error
}

func newBackend(cfg config.Config, logger *slog.Logger) (backend, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if cfg.Redis.URL == "" {
		pubSub := events.NewInProcessPubSub(wmLogger)
		return backend{
			challenges: store.NewMemoryChallengeStore(),
			sessions:   store.NewMemorySessionStore(cfg.Sweep.Interval),
			publisher:  pubSub,
			close:      pubSub.Close,
		}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return backend{}, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		wmLogger,
	)
	if err != nil {
		_ = client.Close()
		return backend{}, fmt.Errorf("creating redis publisher: %w", err)
	}

	return backend{
		challenges: store.NewRedisChallengeStore(client, cfg.Redis.Prefix),
		sessions:   store.NewRedisSessionStore(client, cfg.Redis.Prefix),
		publisher:  publisher,
		close: func() error {
			return errors.Join(publisher.Close(), client.Close())
		},
	}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	be, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			logger.Warn("Closing backend failed", "error", err)
		}
	}()

	opts := []service.Option{
		service.WithAppName(cfg.App.Name),
		service.WithChallengeTTL(cfg.Challenge.TTL),
		service.WithSessionTTL(cfg.Session.TTL),
		service.WithEventPublisher(events.NewWatermillPublisher(be.publisher)),
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, service.WithMetrics(metrics.NewPrometheus(reg)))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	authService := service.NewAuthService(
		be.challenges,
		be.sessions,
		signer.NewPersonalSignRecoverer(),
		profiles.NewMemoryProfileStore(),
		opts...,
	)

	gin.SetMode(gin.ReleaseMode)
	router := transport.SetupRouter(authService, transport.RouterConfig{
		Cookie: transport.SessionCookie{
			Name:   cfg.Cookie.Name,
			Secure: cfg.Production,
			MaxAge: cfg.Session.TTL,
		},
		Logger:  logger,
		Metrics: metricsHandler,
	})

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go authService.RunSweeper(sweepCtx, cfg.Sweep.Interval)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", cfg.HTTP.Address, "version", version, "redis", cfg.Redis.URL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
