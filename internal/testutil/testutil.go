// Package testutil provides the database, Redis, and value helpers shared
// by integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	// database/sql driver for the tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/orderdesk/internal/migrate"
)

// TestingTB covers the subset of *testing.T and *testing.B these helpers
// need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// RunMigrations applies the production migrations, so test schemas always
// match what the app runs against.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}

// TestDBConfig locates the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* with local-compose defaults. The
// default port 55432 is the docker-compose test profile; CI sets
// TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getenvDefault("TEST_DB_HOST", "localhost"),
		Port:     getenvDefault("TEST_DB_PORT", "55432"),
		User:     getenvDefault("TEST_DB_USER", "orderdesk"),
		Password: getenvDefault("TEST_DB_PASSWORD", "orderdesk"),
		DBName:   getenvDefault("TEST_DB_NAME", "orderdesk"),
	}
}

// DSN renders the config as a connection string, without a search_path.
func (cfg TestDBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.User, cfg.Password,
		net.JoinHostPort(cfg.Host, cfg.Port),
		cfg.DBName,
		getenvDefault("DB_SSL_MODE", "disable"))
}

// openAndPing opens dsn and verifies connectivity within timeout. The
// error, if any, is returned rather than fatal so callers choose between
// skip and fail.
func openAndPing(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SkipIfNoTestDB skips (or fails, when TEST_REQUIRE_DB is set) tests that
// need Postgres when none is reachable.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := openAndPing(DefaultTestDBConfig().DSN(), 2*time.Second)
	if err != nil {
		if requireDB() {
			t.Fatal("test Postgres unreachable:", err)
		}
		t.Skip("test Postgres unreachable:", err)
		return
	}
	quietClose(t, "test db", db)
}

// SetupTestDB connects to the shared test database, migrates it, and
// clears any leftover rows.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	db, err := openAndPing(DefaultTestDBConfig().DSN(), 5*time.Second)
	if err != nil {
		t.Fatal("cannot reach test Postgres; is docker-compose up?", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatal("migrating test database:", err)
	}

	CleanupTestDB(t, db)
	return db
}

// CleanupTestDB empties the tables. Orders reference customers, so the
// children go first.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, table := range []string{"orders", "customers"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("cleaning table %s: %v", table, err)
		}
	}
}

// TeardownTestDB cleans and closes the shared test database.
func TeardownTestDB(t TestingTB, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	CleanupTestDB(t, db)
	if err := db.Close(); err != nil {
		t.Fatal("closing test database:", err)
	}
}

// WithTestDB runs fn against the shared test database with setup/teardown.
func WithTestDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)
	fn(db)
}

// SetupAutoDB picks an ephemeral per-test schema when TEST_DB_EPHEMERAL is
// truthy, otherwise the shared database.
func SetupAutoDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)
	if truthyEnv("TEST_DB_EPHEMERAL") {
		return SetupEphemeralSchemaDB(t)
	}
	return SetupTestDB(t)
}

// WithAutoDB runs fn against SetupAutoDB's database. Ephemeral schemas
// clean themselves up via t.Cleanup; the shared database is torn down
// here.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	if truthyEnv("TEST_DB_EPHEMERAL") {
		fn(SetupEphemeralSchemaDB(t))
		return
	}
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)
	fn(db)
}

// SetupEphemeralSchemaDB creates a throwaway schema, points search_path at
// it, migrates it, and registers a drop for after the test. Cleanup is
// registered before migrating so resources are released even when the
// migration fails.
func SetupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	adminDB, err := openAndPing(DefaultTestDBConfig().DSN(), 5*time.Second)
	if err != nil {
		t.Fatal("opening admin DB:", err)
	}

	schema := ephemeralSchemaName()
	if err := execShort(adminDB, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		quietClose(t, "admin DB", adminDB)
		t.Fatalf("creating schema %s: %v", schema, err)
	}

	db := openScopedDB(t, adminDB, schema)
	scheduleSchemaDrop(t, adminDB, db, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := RunMigrations(ctx, db); err != nil {
		quietClose(t, "schema DB", db)
		t.Fatal("migrating ephemeral schema:", err)
	}
	return db
}

func execShort(db *sql.DB, stmt string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, stmt)
	return err
}

// openScopedDB opens a pool whose search_path starts at schema.
func openScopedDB(t TestingTB, adminDB *sql.DB, schema string) *sql.DB {
	u, err := url.Parse(DefaultTestDBConfig().DSN())
	if err != nil {
		quietClose(t, "admin DB", adminDB)
		t.Fatal("parsing DSN:", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()

	db, err := openAndPing(u.String(), 10*time.Second)
	if err != nil {
		quietClose(t, "admin DB", adminDB)
		t.Fatal("opening schema-scoped DB:", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db
}

func scheduleSchemaDrop(t TestingTB, adminDB, db *sql.DB, schema string) {
	t.Logf("Using ephemeral schema: %s", schema)
	drop := func() {
		quietClose(t, "schema DB", db)
		if err := execShort(adminDB, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("Warning: failed to drop schema %s: %v", schema, err)
		}
		quietClose(t, "admin DB", adminDB)
	}
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(drop)
		return
	}
	drop()
}

func ephemeralSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func quietClose(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func truthyEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func requireDB() bool    { return truthyEnv("TEST_REQUIRE_DB") || truthyEnv("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return truthyEnv("TEST_REQUIRE_REDIS") || truthyEnv("TEST_REQUIRE_INFRA") }

// TestTime is the fixed clock used by repository tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// GetTestRedisAddr finds a reachable Redis: REDIS_ADDR first, then the CI
// and local-compose addresses. The bool reports whether anything answered.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr, pingRedis(t, addr)
	}
	for _, addr := range []string{"redis:6379", "localhost:6379"} {
		if pingRedis(t, addr) {
			return addr, true
		}
	}
	const fallback = "localhost:56379"
	return fallback, pingRedis(t, fallback)
}

func pingRedis(t TestingTB, addr string) bool {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer quietClose(t, "redis client", client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("Redis not available at %s: %v", addr, err)
		return false
	}
	return true
}

// SetupTestRedis connects to the detected test Redis (DB 1) and flushes
// it. Skips, or fails under TEST_REQUIRE_REDIS, when none is reachable.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		quietClose(t, "redis client", client)
		if requireRedis() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	client.FlushDB(ctx)
	return client
}

// Pointer helpers for building request fixtures.

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

func IntPtr(i int) *int { return &i }

func TimePtr(t time.Time) *time.Time { return &t }
