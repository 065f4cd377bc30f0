package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	chstore "lp-arena-agent/internal/storage/clickhouse"
)

//go:embed clickhouse/*.sql
var clickhouseFiles embed.FS

// RunClickhouseMigrations creates the target database if needed and applies
// the analysis_history schema. It returns a connection bound to the target
// database so the caller can hand it straight to the history store.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureDatabase(ctx, dsn, dbName); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := sqlFiles(clickhouseFiles, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, name := range files {
		data, err := fs.ReadFile(clickhouseFiles, name)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		// The driver rejects multi-statement Exec, so each file is split and
		// its statements run one at a time.
		for _, stmt := range splitStatements(string(data)) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
	}

	return conn, nil
}

// ensureDatabase connects without selecting a database and issues the CREATE.
func ensureDatabase(ctx context.Context, dsn, dbName string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName); err != nil {
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

// splitStatements cuts a migration file into individual statements. Semicolons
// inside single-quoted literals (with '' escapes) do not split, and -- comments
// run to end of line and are dropped.
func splitStatements(input string) []string {
	var (
		stmts    []string
		buf      strings.Builder
		inString bool
	)

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			stmts = append(stmts, s)
		}
		buf.Reset()
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case inString:
			buf.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					buf.WriteByte(input[i+1])
					i++
				} else {
					inString = false
				}
			}
		case ch == '\'':
			inString = true
			buf.WriteByte(ch)
		case ch == '-' && i+1 < len(input) && input[i+1] == '-':
			for i < len(input) && input[i] != '\n' {
				i++
			}
			buf.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			buf.WriteByte(ch)
		}
	}
	flush()

	return stmts
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
