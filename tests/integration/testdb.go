// Package integration runs the invoicer stack against a real PostgreSQL
// database started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// postgresServer is started once per package run and migrated once;
// every test gets its own pool and truncates the tables first.
var postgresServer struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
	err       error
}

// TestDB is a migrated, empty database for one test
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB connects to the shared PostgreSQL container. It skips the test
// in -short mode.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	postgresServer.once.Do(func() {
		postgresServer.container, postgresServer.cfg, postgresServer.err = startPostgres(context.Background())
	})
	require.NoError(t, postgresServer.err, "start PostgreSQL")

	cfg := postgresServer.cfg
	gormLog := logger.Default.LogMode(logger.Silent)
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormLog = logger.Default.LogMode(logger.Info)
	}
	db, err := persistence.Open(&cfg, gormLog)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tdb := &TestDB{DB: db.DB, t: t}
	tdb.CleanTables()
	return tdb
}

// CleanTables empties every invoicing table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	err := tdb.DB.Exec("TRUNCATE TABLE invoice_payments, invoice_items, invoices, customers CASCADE").Error
	require.NoError(tdb.t, err, "truncate tables")
}

func startPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		User:            "postgres",
		Password:        "postgres",
		DBName:          "invoicer_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(cfg.DBName),
		tcpostgres.WithUsername(cfg.User),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, cfg, fmt.Errorf("run container: %w", err)
	}

	if cfg.Host, err = container.Host(ctx); err != nil {
		return container, cfg, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container, cfg, err
	}
	cfg.Port = port.Int()

	return container, cfg, migrateSchema(cfg)
}

// migrateSchema applies the embedded migrations. The migrator closes the
// connection it is handed.
func migrateSchema(cfg config.DatabaseConfig) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// stopPostgres terminates the shared container, if one was started
func stopPostgres() {
	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
}
