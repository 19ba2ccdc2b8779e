// Command migrate manages the invoicer database schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// session is what a command runs against. migrator is nil for commands
// that only read or write migration files.
type session struct {
	log      *zap.Logger
	dir      string
	source   fs.FS
	migrator *migration.Migrator
}

type command struct {
	offline bool
	run     func(s *session, args []string) error
}

var commands = map[string]command{
	"up":   {run: func(s *session, _ []string) error { return s.migrator.Up() }},
	"down": {run: func(s *session, _ []string) error { return s.migrator.Down() }},
	"step": {run: func(s *session, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return s.migrator.Steps(n)
	}},
	"goto": {run: func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative, got %d", v)
		}
		return s.migrator.GoTo(uint(v))
	}},
	"force": {run: func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return s.migrator.Force(v)
	}},
	"version": {run: func(s *session, _ []string) error {
		version, dirty, err := s.migrator.Version()
		if err != nil {
			return err
		}
		s.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}},
	"drop": {run: func(s *session, args []string) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return errors.New("drop needs -confirm")
		}
		return s.migrator.Drop()
	}},
	"create": {offline: true, run: func(s *session, args []string) error {
		if len(args) == 0 {
			return errors.New("migration name required")
		}
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(s.dir, args[0], description)
		if err != nil {
			return err
		}
		s.log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {offline: true, run: func(s *session, _ []string) error {
		entries, err := migration.ListMigrations(s.source)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("  %06d  %s  (down: %t)\n", e.Version, e.Name, e.HasDown)
		}
		return nil
	}},
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func main() {
	dir := flag.String("path", "", "migrations directory (default: database.migrations_path)")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into this binary")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: *level, Format: "console", TimeFormat: "2006-01-02 15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := execute(log, cmd, args, *dir, *embedded); err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

func execute(log *zap.Logger, cmd command, args []string, dir string, embedded bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir == "" {
		dir = cfg.Database.MigrationsPath
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}

	s := &session{log: log, dir: dir, source: os.DirFS(dir)}
	if embedded {
		s.source = migrations.FS
	}
	log.Debug("Migration source", zap.String("path", dir), zap.Bool("embedded", embedded))
	if cmd.offline {
		return cmd.run(s, args)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	if s.migrator, err = migration.New(db, s.source, log); err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _ = s.migrator.Close() }()

	return cmd.run(s, args)
}

func usage() {
	fmt.Fprint(os.Stderr, `Invoicer database migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                           apply all pending migrations
  down                         roll back all migrations
  step <n>                     apply n migrations (negative rolls back)
  goto <version>               migrate up or down to version
  version                      show the applied version
  force <version>              set the version without migrating (clears dirty state)
  drop -confirm                drop every database object
  create <name> [description]  write a new up/down file pair
  list                         list available migrations

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprint(os.Stderr, `
Connection settings come from config.toml and INVOICER_DATABASE_* variables.
`)
}
