package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"notesnap/internal/logger"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Oracle errors meaning the object already exists. They make re-running a migration a no-op.
var alreadyExistsCodes = []string{"ORA-00955", "ORA-01408", "ORA-02260", "ORA-02261"}

// Execer is satisfied by *sql.DB and *sqlx.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunMigrations executes every embedded .up.sql file in name order.
func RunMigrations(ctx context.Context, db Execer) error {
	return runMigrations(ctx, db, migrationFiles, ".up.sql")
}

// RollbackMigrations executes the .down.sql files in reverse order.
func RollbackMigrations(ctx context.Context, db Execer) error {
	return runMigrations(ctx, db, migrationFiles, ".down.sql")
}

func runMigrations(ctx context.Context, db Execer, fsys fs.FS, suffix string) error {
	l := logger.Get()

	names, err := fs.Glob(fsys, "migrations/*"+suffix)
	if err != nil {
		return fmt.Errorf("could not list migrations: %w", err)
	}
	sort.Strings(names)
	if suffix == ".down.sql" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				if isAlreadyExists(err) {
					l.Info("Migration object already exists, skipping", zap.String("file", name), zap.Error(err))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}

		l.Info("Executed migration", zap.String("file", name))
	}

	l.Info("Migrations completed successfully", zap.Int("files", len(names)))
	return nil
}

// splitStatements breaks a script into single statements; Oracle rejects
// multiple statements per Exec. Trailing semicolons are dropped.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		lines := strings.Split(part, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			kept = append(kept, line)
		}
		stmt := strings.TrimSpace(strings.Join(kept, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func isAlreadyExists(err error) bool {
	msg := err.Error()
	for _, code := range alreadyExistsCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
