package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"borges/db"
	"borges/internal/config"
	"borges/internal/logging"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
)

type Globals struct {
	DSN      string `help:"Postgres DSN" env:"DB_DSN"`
	LogLevel string `help:"Log level (debug, info, warn, error)" env:"LOG_LEVEL" default:"info"`
}

type CLI struct {
	Globals

	Up     UpCmd     `cmd:"" default:"1" help:"Apply all pending migrations"`
	Down   DownCmd   `cmd:"" help:"Roll back the most recent migration"`
	Status StatusCmd `cmd:"" help:"Show the state of every migration"`
	Create CreateCmd `cmd:"" help:"Create a new SQL migration file"`
}

type UpCmd struct{}

type DownCmd struct{}

type StatusCmd struct{}

type CreateCmd struct {
	Name string `arg:"" help:"Migration name, e.g. add_book_tags"`
	Dir  string `help:"Directory to write the migration into" env:"MIGRATIONS_DIR" default:"db/migrations"`
}

func main() {
	config.LoadEnvFiles()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("migrate"),
		kong.Description("Manage the catalog's Postgres schema."),
		kong.UsageOnError(),
	)
	logging.Init(os.Stdout, cli.LogLevel)

	if err := ctx.Run(&cli.Globals); err != nil {
		slog.Error("migrate failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func (g *Globals) withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	if g.DSN == "" {
		return errors.New("DB_DSN is required (flag --dsn or environment)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, g.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	return fn(ctx, pool)
}

func (c *UpCmd) Run(g *Globals) error {
	if err := g.withPool(db.Migrate); err != nil {
		return err
	}
	slog.Info("migrations applied successfully")
	return nil
}

func (c *DownCmd) Run(g *Globals) error {
	if err := g.withPool(db.Rollback); err != nil {
		return err
	}
	slog.Info("migration rolled back successfully")
	return nil
}

func (c *StatusCmd) Run(g *Globals) error {
	return g.withPool(db.Status)
}

// Run writes a new file to disk; it does not use the embedded migrations.
func (c *CreateCmd) Run() error {
	goose.SetBaseFS(nil)
	if err := goose.Create(nil, c.Dir, c.Name, "sql"); err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	slog.Info("migration created", "name", c.Name, "dir", c.Dir)
	return nil
}
