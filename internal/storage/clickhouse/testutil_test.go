package clickhouse

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a disposable ClickHouse container, creates the history
// table, and returns a connection plus a cleanup function.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "lparena_test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s/lparena_test", net.JoinHostPort(host, port.Port()))

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	createHistoryTable(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// createHistoryTable applies the analysis_history DDL. It mirrors
// internal/storage/migrations/clickhouse/001_analysis_history.sql and is
// inlined here because importing the migrations package from these tests
// would create an import cycle.
func createHistoryTable(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_history (
			cycle           UInt64,
			battle_id       UInt64,
			battle_type     Int16,
			status          Int16,
			time_remaining  Int64,
			creator_score   String,
			opponent_score  String,
			leader          LowCardinality(String),
			entry_score     Int32,
			recommendation  String,
			analyzed_at     DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (battle_id, analyzed_at)
		SETTINGS index_granularity = 8192
	`)
	require.NoError(t, err)
}
