//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelledger/sentinel/internal/domain/event"
	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/internal/infrastructure/postgres"
	"github.com/sentinelledger/sentinel/pkg/events"
	"github.com/sentinelledger/sentinel/pkg/testutil"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pg.Cleanup(t) })

	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsDir)
	return pg.Pool
}

func TestMigrations_RollbackAndReapply(t *testing.T) {
	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pg.Cleanup(t) })

	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsDir)
	pg.RollbackMigrations(t, postgres.Migrations, postgres.MigrationsDir)

	tableExists := func(name string) bool {
		var exists bool
		require.NoError(t, pg.Pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", name).Scan(&exists))
		return exists
	}
	assert.False(t, tableExists("fraud_records"))
	assert.False(t, tableExists("outbox"))

	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsDir)
	assert.True(t, tableExists("fraud_records"))
	assert.True(t, tableExists("outbox"))

	repo := postgres.NewRecordRepository(pg.Pool)
	require.NoError(t, repo.Create(ctx, newRecord(t, 1, 95)))
}

func newRecord(t *testing.T, last byte, score int) *model.FraudRecord {
	t.Helper()
	s, err := valueobject.NewFraudScore(score)
	require.NoError(t, err)
	r, err := model.NewFraudRecord(testutil.TxID(last), s, time.Unix(1_750_000_000, 0))
	require.NoError(t, err)
	return r
}

func countOutbox(t *testing.T, pool *pgxpool.Pool, where string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM outbox "+where).Scan(&n))
	return n
}

func TestRecordRepository_CreateAndFind(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	record := newRecord(t, 1, 95)
	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.FindByAddress(ctx, record.Address())
	require.NoError(t, err)
	assert.Equal(t, record.TransactionID(), got.TransactionID())
	assert.Equal(t, 95, got.FraudScore().Value())
	assert.Equal(t, valueobject.ActionBlocked, got.ActionTaken())
	assert.Equal(t, record.Timestamp(), got.Timestamp())
	assert.Equal(t, record.Bump(), got.Bump())

	assert.Equal(t, 2, countOutbox(t, pool, "WHERE aggregate_id = '"+record.Address().String()+"'"))
}

func TestRecordRepository_Duplicate(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, 1, 95)))

	err := repo.Create(ctx, newRecord(t, 1, 10))
	require.ErrorIs(t, err, port.ErrDuplicateRecord)

	got, err := repo.FindByAddress(ctx, newRecord(t, 1, 10).Address())
	require.NoError(t, err)
	assert.Equal(t, 95, got.FraudScore().Value(), "original record is untouched")
	assert.Equal(t, 2, countOutbox(t, pool, ""), "failed create writes no events")
}

func TestRecordRepository_ConcurrentCreate(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), newRecord(t, 5, 50+i))
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, port.ErrDuplicateRecord)
	}
	assert.Equal(t, 1, created)
}

func TestRecordRepository_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)

	_, err := repo.FindByAddress(context.Background(), newRecord(t, 42, 1).Address())
	assert.ErrorIs(t, err, port.ErrRecordNotFound)
}

func TestFraudRecordsAreAppendOnly(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, 1, 95)))

	_, err := pool.Exec(ctx, "UPDATE fraud_records SET fraud_score = 1")
	assert.ErrorContains(t, err, "append-only")

	_, err = pool.Exec(ctx, "DELETE FROM fraud_records")
	assert.ErrorContains(t, err, "append-only")
}

func TestOutboxRepository_ProcessUnpublished(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRecordRepository(pool)
	outbox := postgres.NewOutboxRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, 1, 95)))
	require.NoError(t, repo.Create(ctx, newRecord(t, 2, 79)))

	t.Run("failed publish leaves entries pending", func(t *testing.T) {
		n, err := outbox.ProcessUnpublished(ctx, 10, func(context.Context, []events.OutboxEntry) error {
			return errors.New("broker down")
		})
		require.Error(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 3, countOutbox(t, pool, "WHERE published_at IS NULL"))
	})

	t.Run("batches are bounded and marked published", func(t *testing.T) {
		var seen []events.OutboxEntry
		collect := func(_ context.Context, entries []events.OutboxEntry) error {
			seen = append(seen, entries...)
			return nil
		}

		n, err := outbox.ProcessUnpublished(ctx, 2, collect)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = outbox.ProcessUnpublished(ctx, 2, collect)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = outbox.ProcessUnpublished(ctx, 2, collect)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.Len(t, seen, 3)
		var created event.FraudRecordCreated
		require.NoError(t, json.Unmarshal(seen[0].Payload, &created))
		assert.NotEmpty(t, created.TransactionID)
		assert.Zero(t, countOutbox(t, pool, "WHERE published_at IS NULL"))
	})
}
