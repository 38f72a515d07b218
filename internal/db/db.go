package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mdc-app/mdc/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Driver names registered by the imported database drivers.
const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

func init() {
	// modernc registers "sqlite", which sqlx does not know; it takes "?" placeholders.
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// Open returns the database behind the collection API. A postgres:// or
// postgresql:// DatabaseURL selects Postgres; anything else uses SQLite at
// baseDir/mdc.db.
func Open(ctx context.Context, baseDir string, cfg *config.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	if cfg != nil && isPostgresURL(cfg.DatabaseURL) {
		db, err = OpenPostgres(ctx, cfg.DatabaseURL)
	} else {
		db, err = Init(baseDir)
	}
	if err != nil {
		return nil, err
	}
	ConfigurePool(db, cfg)
	return db, nil
}

func isPostgresURL(u string) bool {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// Init initializes the SQLite database at baseDir/mdc.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mdc.
func Init(baseDir string) (*sqlx.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, "mdc.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open(driverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// OpenPostgres connects through the pgx stdlib driver and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverPostgres, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres schema failed: %w", err)
	}
	return db, nil
}

// Kind names the backing database as reported by the health endpoint.
func Kind(db *sqlx.DB) string {
	if db.DriverName() == driverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sqlx.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

const sqliteSchemaV1 = `
CREATE TABLE IF NOT EXISTS entrenamientos (
  id                  INTEGER PRIMARY KEY AUTOINCREMENT,
  fecha               TEXT NOT NULL,
  tipo                TEXT NOT NULL,
  distancia_km        REAL NOT NULL DEFAULT 0,
  duracion            TEXT NOT NULL DEFAULT '00:00:00',
  intensidad          TEXT,
  descripcion         TEXT,
  clima               TEXT,
  sentimiento         TEXT,
  ciclo_menstrual     TEXT,
  alimentacion_previa TEXT,
  created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entrenamientos_fecha
ON entrenamientos(fecha DESC, id DESC);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS entrenamientos (
  id                  BIGSERIAL PRIMARY KEY,
  fecha               TEXT NOT NULL,
  tipo                TEXT NOT NULL,
  distancia_km        DOUBLE PRECISION NOT NULL DEFAULT 0,
  duracion            TEXT NOT NULL DEFAULT '00:00:00',
  intensidad          TEXT,
  descripcion         TEXT,
  clima               TEXT,
  sentimiento         TEXT,
  ciclo_menstrual     TEXT,
  alimentacion_previa TEXT,
  created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entrenamientos_fecha
ON entrenamientos(fecha DESC, id DESC);
`

// migrate applies schema migrations based on user_version.
func migrate(db *sqlx.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		if _, err := db.Exec(sqliteSchemaV1); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sqlx.DB) error {
	var journalMode string
	if err := db.Get(&journalMode, "PRAGMA journal_mode;"); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sqlx.DB) (int, error) {
	var version int
	if err := db.Get(&version, "PRAGMA user_version;"); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sqlx.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
