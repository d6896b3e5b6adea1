package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/events"
)

func newRecord(t *testing.T, last byte, score int) *model.FraudRecord {
	t.Helper()
	s, err := valueobject.NewFraudScore(score)
	require.NoError(t, err)
	r, err := model.NewFraudRecord(valueobject.TransactionID{31: last}, s, time.Unix(1_750_000_000, 0))
	require.NoError(t, err)
	return r
}

func TestStore_CreateAndFind(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := newRecord(t, 1, 95)
	require.NoError(t, store.Create(ctx, record))
	assert.Equal(t, 2, store.Pending())

	got, err := store.FindByAddress(ctx, record.Address())
	require.NoError(t, err)
	assert.Equal(t, record.TransactionID(), got.TransactionID())
	assert.Equal(t, valueobject.ActionBlocked, got.ActionTaken())
	assert.NotSame(t, record, got, "reads return decoded copies")

	_, err = store.FindByAddress(ctx, newRecord(t, 2, 1).Address())
	assert.ErrorIs(t, err, port.ErrRecordNotFound)
}

func TestStore_Duplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRecord(t, 1, 95)))
	err := store.Create(ctx, newRecord(t, 1, 10))
	require.ErrorIs(t, err, port.ErrDuplicateRecord)

	got, err := store.FindByAddress(ctx, newRecord(t, 1, 10).Address())
	require.NoError(t, err)
	assert.Equal(t, 95, got.FraudScore().Value())
	assert.Equal(t, 2, store.Pending(), "rejected create adds no events")
}

func TestStore_ConcurrentCreate(t *testing.T) {
	store := NewStore()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(context.Background(), newRecord(t, 7, i))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, port.ErrDuplicateRecord)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestStore_ProcessUnpublished(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRecord(t, 1, 95)))
	require.NoError(t, store.Create(ctx, newRecord(t, 2, 10)))
	require.Equal(t, 3, store.Pending())

	n, err := store.ProcessUnpublished(ctx, 10, func(context.Context, []events.OutboxEntry) error {
		return errors.New("broker down")
	})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, store.Pending())

	var types []string
	n, err = store.ProcessUnpublished(ctx, 2, func(_ context.Context, entries []events.OutboxEntry) error {
		for _, e := range entries {
			types = append(types, e.EventType)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"fraud.record.created", "fraud.transaction.blocked"}, types)
	assert.Equal(t, 1, store.Pending())
}

func TestStore_ProcessUnpublishedSkipsClaimed(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newRecord(t, 1, 95)))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = store.ProcessUnpublished(ctx, 1, func(context.Context, []events.OutboxEntry) error {
			close(inFlight)
			<-release
			return nil
		})
	}()
	<-inFlight

	var second []events.OutboxEntry
	_, err := store.ProcessUnpublished(ctx, 10, func(_ context.Context, entries []events.OutboxEntry) error {
		second = entries
		return nil
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "fraud.transaction.blocked", second[0].EventType)

	close(release)
	<-done
	assert.Zero(t, store.Pending())
}
