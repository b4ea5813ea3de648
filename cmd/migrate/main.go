package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/urfave/cli/v2"

	"github.com/jhoicas/stock-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "migraciones del esquema PostgreSQL de stock-engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "connection string; por defecto se toma de la configuración (DATABASE_URL / DB_*)",
				EnvVars: []string{"MIGRATE_DATABASE_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "aplica todas las migraciones pendientes",
				Action: func(c *cli.Context) error {
					return run(c, func(m *migrate.Migrate) error { return m.Up() })
				},
			},
			{
				Name:  "down",
				Usage: "revierte migraciones (por defecto una)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "número de migraciones a revertir"},
				},
				Action: func(c *cli.Context) error {
					steps := c.Int("steps")
					if steps < 1 {
						return cli.Exit("steps debe ser >= 1", 2)
					}
					return run(c, func(m *migrate.Migrate) error { return m.Steps(-steps) })
				},
			},
			{
				Name:  "version",
				Usage: "muestra la versión aplicada del esquema",
				Action: func(c *cli.Context) error {
					return run(c, func(m *migrate.Migrate) error {
						v, dirty, err := m.Version()
						if errors.Is(err, migrate.ErrNilVersion) {
							fmt.Fprintln(c.App.Writer, "sin migraciones aplicadas")
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "versión %d (dirty=%t)\n", v, dirty)
						return nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context, fn func(*migrate.Migrate) error) error {
	dbURL := c.String("database-url")
	if dbURL == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("cargar configuración: %w", err)
		}
		dbURL = cfg.DB.ConnectionString()
	}
	log := logger.New(logger.Config{Env: "development", Level: "info", Service: "stock-engine-migrate"}).Component("migrate")

	m, err := postgres.NewMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", c.Command.Name, err)
	}
	log.Info().Str("command", c.Command.Name).Msg("migración completada")
	return nil
}
