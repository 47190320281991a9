package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_create_users",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				username      VARCHAR(50) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				UNIQUE KEY uq_users_username (username)
			)`,
	},
	{
		version: "002_create_weights",
		sql: `
			CREATE TABLE IF NOT EXISTS weights (
				id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				user_id    BIGINT UNSIGNED NOT NULL,
				weight     DOUBLE NOT NULL,
				date       DATE NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uq_weights_user_date (user_id, date),
				KEY ix_weights_date (date),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
	},
	{
		version: "003_add_user_profile",
		sql: `
			ALTER TABLE users
				ADD COLUMN first_name VARCHAR(100) NULL,
				ADD COLUMN last_name  VARCHAR(100) NULL,
				ADD COLUMN age        INT NULL,
				ADD COLUMN height_cm  DOUBLE NULL,
				ADD COLUMN gender     VARCHAR(16) NULL`,
	},
	{
		version: "004_create_metric_entries",
		sql: `
			CREATE TABLE IF NOT EXISTS metric_entries (
				id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				user_id     BIGINT UNSIGNED NOT NULL,
				metric_type VARCHAR(50) NOT NULL,
				date        DATE NOT NULL,
				value       JSON NOT NULL,
				created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uq_user_metric_date (user_id, metric_type, date),
				KEY ix_metric_entries_type (metric_type),
				KEY ix_metric_entries_date (date),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
	},
}

func RunMigrations(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(ctx, db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if err := executeMigration(ctx, db, m); err != nil {
			return err
		}

		log.Info("applied migration", zap.String("version", m.version))
	}

	return nil
}

func isMigrationApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?",
		version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return count > 0, nil
}

// executeMigration applies m and records it. MySQL commits DDL implicitly, so
// the transaction only groups the bookkeeping with the statements.
func executeMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.version, err)
	}

	for _, stmt := range strings.Split(m.sql, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.version, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version) VALUES (?)",
		m.version,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", m.version, err)
	}

	return tx.Commit()
}
