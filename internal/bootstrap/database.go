package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/orderdesk/config"
	"github.com/orderdesk/orderdesk/internal/data"
)

// DatabaseConfig carries everything the connection helpers need.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// Pool sizing and probe timeout for the Postgres pool.
const (
	probeTimeout    = 5 * time.Second
	poolMaxOpen     = 25
	poolMaxIdle     = 5
	poolMaxLifetime = 5 * time.Minute
)

// postgresDSN assembles the connection string via url.URL so passwords
// containing reserved characters stay intact.
func postgresDSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// probe runs fn under the probe timeout and tears the resource down on
// failure so callers never receive a half-alive handle.
func probe(what string, fn func(context.Context) error, teardown func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if closeErr := teardown(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close %s: %w", what, closeErr))
	}
	return fmt.Errorf("ping %s: %w", what, err)
}

// ConnectDB opens the Postgres pool, applies sizing, and pings it once.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(poolMaxOpen)
	db.SetMaxIdleConns(poolMaxIdle)
	db.SetConnMaxLifetime(poolMaxLifetime)

	if err := probe("database", db.PingContext, db.Close); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// ConnectRedis picks the topology the configuration asks for (direct,
// sentinel, or cluster) and verifies the resulting client with a ping.
//
//nolint:ireturn // redis.UniversalClient covers all three topologies.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	dialer := redisDialer{cfg: cfg.RedisConfig}

	var (
		client redis.UniversalClient
		label  string
		err    error
	)
	switch {
	case cfg.RedisConfig.UseCluster:
		client, label, err = dialer.cluster()
	case cfg.RedisConfig.UseSentinel:
		client, label, err = dialer.sentinel()
	default:
		client, label, err = dialer.direct()
	}
	if err != nil {
		return nil, err
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := probe("redis", ping, client.Close); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", redactAddr(label))
	}

	return client, nil
}

// redactAddr removes credentials from an address before logging it.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if _, host, found := strings.Cut(addr, "@"); found {
		return host
	}
	return addr
}

// redisDialer builds one of the three client kinds from RedisConfig.
// Each method also returns a short label describing where it connected.
type redisDialer struct {
	cfg config.RedisConfig
}

//nolint:ireturn // see ConnectRedis.
func (d redisDialer) cluster() (redis.UniversalClient, string, error) {
	opts := &redis.ClusterOptions{
		Addrs:    trimAddrs(d.cfg.ClusterNodes),
		Password: d.cfg.Password,
	}

	// An empty node list can still fall back to a single seed named by
	// the direct URI.
	if len(opts.Addrs) == 0 {
		seed, err := d.clusterSeedFromURI()
		if err != nil {
			return nil, "", err
		}
		if seed.addr != "" {
			opts.Addrs = []string{seed.addr}
			opts.Username = seed.username
			opts.Password = seed.password
			opts.TLSConfig = seed.tlsConfig
		}
	}
	if len(opts.Addrs) == 0 {
		return nil, "", errors.New("redis cluster mode needs at least one node address")
	}

	return redis.NewClusterClient(opts), "cluster:" + strings.Join(opts.Addrs, ","), nil
}

//nolint:ireturn // see ConnectRedis.
func (d redisDialer) sentinel() (redis.UniversalClient, string, error) {
	if len(d.cfg.SentinelNodes) == 0 {
		return nil, "", errors.New("redis sentinel mode needs at least one sentinel address")
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       d.cfg.SentinelMasterName,
		SentinelAddrs:    d.cfg.SentinelNodes,
		Password:         d.cfg.Password,
		SentinelPassword: d.cfg.SentinelPassword,
		DB:               d.cfg.DB,
	})
	return client, "sentinel:" + d.cfg.SentinelMasterName, nil
}

//nolint:ireturn // see ConnectRedis.
func (d redisDialer) direct() (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(d.cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis direct mode needs a URI")
	}

	if hasRedisScheme(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), opt.Addr, nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     uri,
		Password: d.cfg.Password,
		DB:       d.cfg.DB,
	}), uri, nil
}

// redisSeed is a single cluster seed parsed from the direct URI.
type redisSeed struct {
	addr      string
	username  string
	password  string
	tlsConfig *tls.Config
}

// clusterSeedFromURI derives a seed from the direct URI. Bare host:port
// values are used as-is with the configured password.
func (d redisDialer) clusterSeedFromURI() (redisSeed, error) {
	uri := strings.TrimSpace(d.cfg.URI)
	switch {
	case uri == "":
		return redisSeed{password: d.cfg.Password}, nil
	case !hasRedisScheme(uri):
		return redisSeed{addr: uri, password: d.cfg.Password}, nil
	}

	opt, err := redis.ParseURL(uri)
	if err != nil {
		return redisSeed{}, fmt.Errorf("parse redis cluster url: %w", err)
	}

	seed := redisSeed{
		addr:      opt.Addr,
		username:  opt.Username,
		password:  d.cfg.Password,
		tlsConfig: opt.TLSConfig,
	}
	if opt.Password != "" {
		seed.password = opt.Password
	}
	return seed, nil
}

func trimAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if a := strings.TrimSpace(addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func hasRedisScheme(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// RunMigrations applies any schema migrations not yet recorded.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
