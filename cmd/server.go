package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/line-relay/internal/bots"
	"github.com/ziadkadry99/line-relay/internal/cache"
	"github.com/ziadkadry99/line-relay/internal/canned"
	"github.com/ziadkadry99/line-relay/internal/completion"
	"github.com/ziadkadry99/line-relay/internal/config"
	"github.com/ziadkadry99/line-relay/internal/db"
	"github.com/ziadkadry99/line-relay/internal/llm"
	"github.com/ziadkadry99/line-relay/internal/server"
	"github.com/ziadkadry99/line-relay/internal/usage"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the webhook relay",
	Long:  `Starts the HTTP server that receives LINE webhooks and replies with completions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}

		logger := newLogger(cfg.LogLevel)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		replyCache, closeCache, err := buildCache(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeCache()

		cannedStore := canned.NewStore(database)
		usageStore := usage.NewStore(database)

		go func() {
			if _, err := cache.Warm(ctx, replyCache, cannedStore, logger); err != nil {
				logger.Warn("cache warm-up failed", "error", err)
			}
		}()

		srv, err := buildServer(cfg, logger, replyCache, cannedStore, usageStore)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		logger.Info("linerelay starting",
			"version", Version,
			"port", cfg.Port,
			"model", cfg.OpenAI.Model,
			"database", database.Path(),
			"redis", cfg.Cache.RedisAddr != "",
			"admin_api", cfg.AdminToken != "",
		)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

// buildCache returns the Redis cache when an address is configured and the
// in-process cache otherwise.
func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache(), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	rc := cache.NewRedisCache(client)
	return rc, func() { rc.Close() }, nil
}

// buildServer wires the completion pipeline and mounts every route.
func buildServer(cfg *config.Config, logger *slog.Logger, replyCache cache.Cache, cannedStore *canned.Store, usageStore *usage.Store) (*server.Server, error) {
	provider := llm.NewRateLimitedProvider(llm.NewOpenAIProvider(llm.OpenAIOptions{
		APIKey:       cfg.OpenAI.APIKey,
		Organization: cfg.OpenAI.Organization,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
	}), cfg.OpenAI.RequestsPerMinute)

	client := completion.NewClient(provider, completion.Options{
		Model:           cfg.OpenAI.Model,
		FallbackMessage: cfg.FallbackMessage,
		Timeout:         cfg.OpenAI.Timeout,
		Logger:          logger,
	})

	replier, err := bots.NewLineReplier(cfg.Line.ChannelToken, cfg.Line.Endpoint)
	if err != nil {
		return nil, err
	}

	dispatcher := bots.NewDispatcher(client, replier, bots.DispatcherOptions{
		Cache:    replyCache,
		CacheTTL: cfg.Cache.TTL,
		Usage:    usageStore,
		Logger:   logger,
	})
	if cfg.Line.ChannelSecret == "" {
		logger.Warn("line.channel_secret is not set; webhook signatures will not be verified")
	}
	lineHandler := bots.NewLineHandler(bots.NewGateway(dispatcher), cfg.Line.ChannelSecret, logger)

	srv := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		AdminToken:     cfg.AdminToken,
	}, logger)

	bots.RegisterRoutes(srv.Router(), lineHandler)

	if admin := srv.Admin(); admin != nil {
		canned.RegisterRoutes(admin, cannedStore, replyCache, logger)
		usage.RegisterRoutes(admin, usageStore)
	}

	return srv, nil
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 3000, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
