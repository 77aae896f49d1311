// Command orderdesk-admin bundles operational chores: migrations, schema
// resets, development seeding, order reports, and cache maintenance.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/orderdesk/orderdesk/config"
	"github.com/orderdesk/orderdesk/internal/bootstrap"
	"github.com/orderdesk/orderdesk/internal/devseed"
)

const defaultMigrationTimeout = 5 * time.Minute

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

type command struct {
	description string
	run         func(ctx *commandContext, args []string) error
}

var commands = map[string]command{ //nolint:gochecknoglobals // CLI dispatch table
	"migrate":       {"Run database migrations", runMigrations},
	"db-reset":      {"Drop the database schema, run migrations, and optionally seed data", runDBReset},
	"db-seed":       {"Run database migrations and seed development data", runDBSeed},
	"orders-report": {"Print order counts per status and the most recent orders", runOrdersReport},
	"clear-cache":   {"Clear cached dashboard data from Redis", runClearCache},
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{Ctx: context.Background(), Logger: logger, Config: cfg}
	if err := cmd.run(cmdCtx, os.Args[2:]); err != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", name, "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal command failure to shell scripts
	}
}

func printUsage() {
	fmt.Println("Usage: orderdesk-admin <command> [flags]")
	fmt.Println()
	fmt.Println("Available commands:")
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		fmt.Printf("  %-16s %s\n", name, commands[name].description)
	}
}

// adminFlags builds a flag set carrying the options shared by the
// database commands. The returned pointers are bound to the set.
type adminFlags struct {
	fs          *flag.FlagSet
	timeout     time.Duration
	yes         bool
	seed        bool
	allowRemote bool
}

func newAdminFlags(name string) *adminFlags {
	af := &adminFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	af.fs.SetOutput(os.Stderr)
	af.fs.DurationVar(&af.timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for the command to complete")
	return af
}

func (af *adminFlags) withConfirm() *adminFlags {
	af.fs.BoolVar(&af.yes, "yes", false, "Skip confirmation prompt")
	return af
}

func (af *adminFlags) withSeed() *adminFlags {
	af.fs.BoolVar(&af.seed, "seed", false, "Run database seeding after reset completes")
	return af
}

func (af *adminFlags) withAllowRemote() *adminFlags {
	af.fs.BoolVar(&af.allowRemote, "allow-remote", false,
		"Permit running against database hosts that do not look local")
	return af
}

func (af *adminFlags) parse(args []string) error {
	if err := af.fs.Parse(args); err != nil {
		return err
	}
	if af.timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	af := newAdminFlags("migrate")
	if err := af.parse(args); err != nil {
		return err
	}

	return cmdCtx.withDatabase(af.timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	af := newAdminFlags("db-reset").withConfirm().withSeed().withAllowRemote()
	if err := af.parse(args); err != nil {
		return err
	}

	pg := cmdCtx.Config.Postgres
	remote, err := guardRemoteHost(cmdCtx, af.allowRemote)
	if err != nil {
		return err
	}

	// A remote host always prompts, even with --yes.
	if !af.yes || remote {
		target := fmt.Sprintf("database %q on %s:%d", pg.Name, pg.Host, pg.Port)
		if err := confirm("reset database schema", target,
			"WARNING: this will drop and recreate the public schema for the configured database."); err != nil {
			return err
		}
	}

	return cmdCtx.withDatabase(af.timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("dropping public schema", "database", pg.Name)
		if err := cmdCtx.resetDatabase(ctx, db); err != nil {
			return err
		}

		cmdCtx.Logger.Info("re-running database migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		if af.seed {
			cmdCtx.Logger.Info("seeding development data after reset")
			if err := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); err != nil {
				return fmt.Errorf("seed data: %w", err)
			}
		}

		cmdCtx.Logger.Info("database reset completed successfully")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	af := newAdminFlags("db-seed").withAllowRemote()
	if err := af.parse(args); err != nil {
		return err
	}
	if _, err := guardRemoteHost(cmdCtx, af.allowRemote); err != nil {
		return err
	}

	return cmdCtx.withDatabase(af.timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		cmdCtx.Logger.Info("seeding development data")
		if err := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}

		cmdCtx.Logger.Info("database seeding completed successfully")
		return nil
	})
}

// withDatabase connects to Postgres and runs f under a signal-aware,
// timeout-bounded context.
func (cmdCtx *commandContext) withDatabase(timeout time.Duration, f func(context.Context, *sql.DB) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func guardRemoteHost(cmdCtx *commandContext, allow bool) (bool, error) {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host)
	}
	return true, nil
}

func (cmdCtx *commandContext) resetDatabase(ctx context.Context, db *sql.DB) error {
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if user := strings.TrimSpace(cmdCtx.Config.Postgres.User); user != "" && !strings.EqualFold(user, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(user))
	}

	for _, stmt := range statements {
		cmdCtx.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isLikelyRemoteHost(host string) bool {
	switch h := strings.ToLower(strings.TrimSpace(host)); {
	case h == "", h == "localhost", h == "127.0.0.1", h == "::1", h == "postgres", h == "db":
		return false
	default:
		if ip := net.ParseIP(h); ip != nil {
			return !ip.IsLoopback() && !ip.IsPrivate()
		}
		return strings.Contains(h, ".")
	}
}

func confirm(action, target, warning string) error {
	fmt.Printf("About to %s for %s.\n", action, target)
	if warning != "" {
		fmt.Println(warning)
	}
	fmt.Print("Continue? [y/N]: ")

	resp, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return errors.New("aborted by user")
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("aborted by user")
	}
}
