package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"marketplace-be/internal/config"
	"marketplace-be/internal/db"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and roll back SQL migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "./migrations", "directory holding *.sql migrations")

	// withMigrator opens the database for the duration of one subcommand.
	withMigrator := func(fn func(m *migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()
			return fn(&migrator{db: conn, dir: dir, out: cmd.OutOrStdout()})
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  withMigrator(func(m *migrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recently applied migration",
			RunE:  withMigrator(func(m *migrator) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			RunE:  withMigrator(func(m *migrator) error { return m.Status() }),
		},
	)
	return root
}

// resolveDSN prefers DB_URL and falls back to the DB_* variables the
// server reads, rendered by the same builder.
func resolveDSN() (string, error) {
	_ = godotenv.Load()

	if dsn := os.Getenv("DB_URL"); dsn != "" {
		return dsn, nil
	}
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return "", fmt.Errorf("neither DB_URL nor DB_HOST is set: %w", err)
	}
	return db.BuildDSN(cfg), nil
}

func openDB() (*sql.DB, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}
	return conn, nil
}

type migrator struct {
	db  *sql.DB
	dir string
	out io.Writer
}

func (m *migrator) ensureTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

// files returns migration paths in lexical order.
func (m *migrator) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (m *migrator) applied() (map[string]bool, error) {
	rows, err := m.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

// exec runs one migration section and its bookkeeping statement atomically.
func (m *migrator) exec(script, bookkeeping, version string) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (m *migrator) Up() error {
	if err := m.ensureTable(); err != nil {
		return err
	}
	files, err := m.files()
	if err != nil {
		return err
	}
	done, err := m.applied()
	if err != nil {
		return err
	}

	count := 0
	for _, file := range files {
		version := filepath.Base(file)
		if done[version] {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		fmt.Fprintf(m.out, "applying %s\n", version)
		up := extractMigrationPart(string(content), "Up")
		if err := m.exec(up, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("migration failed (%s): %w", version, err)
		}
		count++
	}

	if count == 0 {
		fmt.Fprintln(m.out, "nothing to apply")
		return nil
	}
	fmt.Fprintf(m.out, "applied %d migration(s)\n", count)
	return nil
}

func (m *migrator) Down() error {
	if err := m.ensureTable(); err != nil {
		return err
	}

	var lastVersion string
	err := m.db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if err == sql.ErrNoRows {
		fmt.Fprintln(m.out, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	path := filepath.Join(m.dir, lastVersion)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("migration file not found for version %s: %w", lastVersion, err)
	}

	fmt.Fprintf(m.out, "rolling back %s\n", lastVersion)
	down := extractMigrationPart(string(content), "Down")
	if err := m.exec(down, `DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
		return fmt.Errorf("rollback failed (%s): %w", lastVersion, err)
	}
	return nil
}

func (m *migrator) Status() error {
	if err := m.ensureTable(); err != nil {
		return err
	}
	files, err := m.files()
	if err != nil {
		return err
	}
	done, err := m.applied()
	if err != nil {
		return err
	}

	for _, file := range files {
		version := filepath.Base(file)
		state := "pending"
		if done[version] {
			state = "applied"
		}
		fmt.Fprintf(m.out, "%-8s %s\n", state, version)
	}
	return nil
}

func extractMigrationPart(content string, section string) string {
	lines := strings.Split(content, "\n")
	var part strings.Builder
	var inPart bool

	for _, line := range lines {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
