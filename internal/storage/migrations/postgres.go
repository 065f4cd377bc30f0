// Package migrations applies the embedded schema for both storage backends.
// Files run in lexical order and are written to be idempotent, so reapplying
// on every start is safe.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"lp-arena-agent/internal/storage/postgres"
)

//go:embed postgres/*.sql
var postgresFiles embed.FS

// RunPostgresMigrations creates the action_log and battle_archive tables.
// The agent calls this on every start before opening the stores.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(postgresFiles, "postgres")
	if err != nil {
		return err
	}

	for _, name := range files {
		data, err := fs.ReadFile(postgresFiles, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// sqlFiles lists the .sql entries under dir in lexical order, with the dir
// prefix attached so the names can be passed straight to fs.ReadFile.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, dir+"/"+e.Name())
	}
	sort.Strings(files)

	return files, nil
}
