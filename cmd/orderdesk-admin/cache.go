package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/orderdesk/config"
	"github.com/orderdesk/orderdesk/internal/bootstrap"
)

const cacheDeleteBatchSize = 100

type clearCacheOptions struct {
	Timeout time.Duration
	Match   string
	DryRun  bool
	Yes     bool
}

func parseClearCacheFlags(args []string) (clearCacheOptions, error) {
	fs := flag.NewFlagSet("clear-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearCacheOptions{Timeout: time.Minute, Match: "orderdesk:*"}
	fs.DurationVar(&opts.Timeout, "timeout", time.Minute,
		"Maximum duration to wait for the cache scan")
	fs.StringVar(&opts.Match, "match", "orderdesk:*", "Key pattern to clear")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "List matching keys without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearCacheOptions{}, err
	}
	if opts.Timeout <= 0 {
		return clearCacheOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Match == "" {
		return clearCacheOptions{}, errors.New("--match must not be empty")
	}
	return opts, nil
}

func runClearCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearCacheFlags(args)
	if err != nil {
		return err
	}

	if !opts.DryRun && !opts.Yes {
		target := fmt.Sprintf("keys matching %q", opts.Match)
		if err := confirm("clear cache", target,
			"WARNING: cached dashboard data will be rebuilt on the next request."); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := connectRedisClient(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	deleted, err := clearMatchingKeys(ctx, client, opts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return writef(os.Stdout, "dry run: %d keys match %q\n", deleted, opts.Match)
	}
	return writef(os.Stdout, "cleared %d keys matching %q\n", deleted, opts.Match)
}

// connectRedisClient connects to Redis or fails when no Redis is configured.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedisClient(cmdCtx *commandContext) (redis.UniversalClient, error) {
	if !hasRedisConfig(&cmdCtx.Config.Redis) {
		return nil, errors.New("redis not configured; set REDIS_URI (or cluster/sentinel settings) first")
	}
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

// clearMatchingKeys scans for keys matching the pattern and deletes them in
// batches. In dry-run mode it only counts.
func clearMatchingKeys(ctx context.Context, client redis.UniversalClient, opts clearCacheOptions) (int, error) {
	iter := client.Scan(ctx, 0, opts.Match, 0).Iterator()

	count := 0
	batch := make([]string, 0, cacheDeleteBatchSize)
	for iter.Next(ctx) {
		count++
		if opts.DryRun {
			continue
		}
		batch = append(batch, iter.Val())
		if len(batch) >= cacheDeleteBatchSize {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return count, fmt.Errorf("delete keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("redis scan: %w", err)
	}
	if !opts.DryRun && len(batch) > 0 {
		if err := client.Del(ctx, batch...).Err(); err != nil {
			return count, fmt.Errorf("delete keys: %w", err)
		}
	}
	return count, nil
}
