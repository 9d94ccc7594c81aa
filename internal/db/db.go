package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-be/internal/config"
	"marketplace-be/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// BuildDSN renders the lib/pq connection string shared by the server and
// the migration tool.
func BuildDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s connect_timeout=5",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode,
	)
}

// NewDatabase opens a pooled postgres handle and verifies it with a ping.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driver string) (*sql.DB, error) {
	db, err := sql.Open(driver, BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("dbname", cfg.DBName),
	)
	return db, nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	log := logger.FromCtx(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("db: failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.Warn("db: rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("db: failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
