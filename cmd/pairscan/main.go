package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pairscan/internal/config"
	"github.com/Sternrassler/pairscan/pkg/cache"
	"github.com/Sternrassler/pairscan/pkg/client"
	"github.com/Sternrassler/pairscan/pkg/discovery"
	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/Sternrassler/pairscan/pkg/metrics"
	"github.com/Sternrassler/pairscan/pkg/table"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	st := config.Load()
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(st.LogLevel),
		Pretty: st.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, st); err != nil {
		log.Error().Err(err).Msg("pairscan failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, st config.Settings) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger := logging.NewLogger("pairscan")

	if st.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, st.MetricsAddr); err != nil {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	node, err := client.New(ctx, client.DefaultConfig(st.RPCURL))
	if err != nil {
		return fmt.Errorf("create node client: %w", err)
	}
	defer node.Close()

	cfg := discovery.DefaultConfig()
	cfg.BatchLimit = st.BatchLimit
	cfg.CallTimeout = st.CallTimeout

	if st.RedisURL != "" {
		nameCache, closeCache, err := connectNameCache(ctx, st, node)
		if err != nil {
			return err
		}
		defer closeCache()
		cfg.NameCache = nameCache
	}

	pipeline, err := discovery.New(node, cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	start := time.Now()
	tbl, runErr := pipeline.Discover(ctx, st.FactoryAddress)

	// Rows of completed batches are written even when the run failed.
	if tbl != nil {
		if err := writeTable(st.OutputPath, tbl); err != nil {
			return errors.Join(runErr, err)
		}
		logger.Info().
			Str("path", st.OutputPath).
			Int("rows", tbl.Len()).
			Dur("duration", time.Since(start)).
			Msg("Output written")
	}

	return runErr
}

func connectNameCache(ctx context.Context, st config.Settings, node *client.Client) (*cache.Manager, func(), error) {
	opts, err := redis.ParseURL(st.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis_url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	chainID, err := node.ChainID(ctx)
	if err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("resolve chain id: %w", err)
	}

	log.Info().
		Str("redis", opts.Addr).
		Str("namespace", chainID.String()).
		Dur("ttl", st.NameCacheTTL).
		Msg("Token name cache enabled")

	manager := cache.NewManager(redisClient, cache.Config{
		Namespace: chainID.String(),
		TTL:       st.NameCacheTTL,
	})
	return manager, func() { redisClient.Close() }, nil
}

func writeTable(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := tbl.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
