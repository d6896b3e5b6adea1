package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/events"
	"github.com/sentinelledger/sentinel/pkg/oracle"
	"github.com/sentinelledger/sentinel/pkg/testutil"
)

// --- Mock implementations ---

type mockRecordRepository struct {
	mu         sync.Mutex
	records    map[valueobject.RecordAddress]*model.FraudRecord
	events     []events.DomainEvent
	createFunc func(ctx context.Context, record *model.FraudRecord) error
}

func newMockRecordRepository() *mockRecordRepository {
	return &mockRecordRepository{records: make(map[valueobject.RecordAddress]*model.FraudRecord)}
}

func (m *mockRecordRepository) Create(ctx context.Context, record *model.FraudRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.Address()]; ok {
		return port.ErrDuplicateRecord
	}
	m.records[record.Address()] = record
	m.events = append(m.events, record.DomainEvents()...)
	return nil
}

func (m *mockRecordRepository) FindByAddress(_ context.Context, address valueobject.RecordAddress) (*model.FraudRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[address]
	if !ok {
		return nil, port.ErrRecordNotFound
	}
	return r, nil
}

type mockClock struct {
	now time.Time
	err error
}

func (c mockClock) Now() (time.Time, error) { return c.now, c.err }

// --- Helpers ---

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newRecorder(t *testing.T, repo port.RecordRepository, clock port.Clock) *usecase.RecordFraudScore {
	t.Helper()
	authority, err := service.NewOracleAuthority(testutil.OracleAddress)
	require.NoError(t, err)
	return usecase.NewRecordFraudScore(repo, oracle.Verifier{}, authority, clock)
}

func signedRequest(t *testing.T, last byte, score int) dto.RecordFraudScoreRequest {
	t.Helper()
	id := testutil.TxID(last)
	return dto.RecordFraudScoreRequest{
		TransactionID: valueobject.TransactionID(id).String(),
		FraudScore:    score,
		Signature:     testutil.SignSubmission(t, id, score),
	}
}

// --- Tests ---

func TestRecordFraudScore_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("high score is blocked", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		resp, err := uc.Execute(ctx, signedRequest(t, 1, 95))
		require.NoError(t, err)

		assert.Equal(t, "Blocked", resp.ActionTaken)
		assert.Equal(t, 95, resp.FraudScore)
		assert.Equal(t, fixedNow.Unix(), resp.Timestamp)
		assert.Equal(t, valueobject.TransactionID(testutil.TxID(1)).String(), resp.TransactionID)

		addr, bump, err := valueobject.DeriveRecordAddress(testutil.TxID(1))
		require.NoError(t, err)
		assert.Equal(t, addr.String(), resp.Address)
		assert.Equal(t, bump, resp.Bump)

		require.Len(t, repo.events, 2)
	})

	t.Run("score below threshold is approved", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		resp, err := uc.Execute(ctx, signedRequest(t, 2, 79))
		require.NoError(t, err)
		assert.Equal(t, "Approved", resp.ActionTaken)
		assert.Len(t, repo.events, 1)
	})

	t.Run("second submission for the same id is a duplicate and keeps the original", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		_, err := uc.Execute(ctx, signedRequest(t, 1, 95))
		require.NoError(t, err)

		_, err = uc.Execute(ctx, signedRequest(t, 1, 10))
		require.ErrorIs(t, err, port.ErrDuplicateRecord)

		addr, _, err := valueobject.DeriveRecordAddress(testutil.TxID(1))
		require.NoError(t, err)
		stored, err := repo.FindByAddress(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, 95, stored.FraudScore().Value())
		assert.Equal(t, valueobject.ActionBlocked, stored.ActionTaken())
	})

	t.Run("signature from another key is rejected", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		intruder, err := oracle.GenerateSigner()
		require.NoError(t, err)
		sig, err := intruder.Sign(testutil.TxID(1), 95)
		require.NoError(t, err)

		req := signedRequest(t, 1, 95)
		req.Signature = sig
		_, err = uc.Execute(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidOracle)
		assert.Empty(t, repo.records)
	})

	t.Run("signature over a different score is rejected", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		req := signedRequest(t, 1, 10)
		req.FraudScore = 95
		_, err := uc.Execute(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidOracle)
		assert.Empty(t, repo.records)
	})

	t.Run("malformed signature is rejected", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		req := signedRequest(t, 1, 95)
		req.Signature = "0xdeadbeef"
		_, err := uc.Execute(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidOracle)
		assert.ErrorIs(t, err, oracle.ErrMalformedSignature)
	})

	t.Run("unconfigured authority rejects everyone", func(t *testing.T) {
		repo := newMockRecordRepository()
		authority, err := service.NewOracleAuthority("")
		require.NoError(t, err)
		uc := usecase.NewRecordFraudScore(repo, oracle.Verifier{}, authority, mockClock{now: fixedNow})

		_, err = uc.Execute(ctx, signedRequest(t, 1, 95))
		assert.ErrorIs(t, err, service.ErrInvalidOracle)
	})

	t.Run("score above range is rejected even when signed", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		_, err := uc.Execute(ctx, signedRequest(t, 3, 101))
		assert.ErrorIs(t, err, valueobject.ErrInvalidScoreRange)
		assert.Empty(t, repo.records)
	})

	t.Run("invalid transaction id", func(t *testing.T) {
		uc := newRecorder(t, newMockRecordRepository(), mockClock{now: fixedNow})

		_, err := uc.Execute(ctx, dto.RecordFraudScoreRequest{TransactionID: "xyz", FraudScore: 50, Signature: "0x00"})
		assert.ErrorIs(t, err, valueobject.ErrInvalidTransactionID)
	})

	t.Run("clock failure aborts without a record", func(t *testing.T) {
		repo := newMockRecordRepository()
		uc := newRecorder(t, repo, mockClock{err: errors.New("ntp unreachable")})

		_, err := uc.Execute(ctx, signedRequest(t, 1, 95))
		assert.ErrorIs(t, err, service.ErrClockUnavailable)
		assert.Empty(t, repo.records)
	})

	t.Run("repository failure is surfaced", func(t *testing.T) {
		repo := newMockRecordRepository()
		repo.createFunc = func(context.Context, *model.FraudRecord) error { return errors.New("connection reset") }
		uc := newRecorder(t, repo, mockClock{now: fixedNow})

		_, err := uc.Execute(ctx, signedRequest(t, 1, 95))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit fraud record")
	})
}

func TestRecordFraudScore_ConcurrentDuplicates(t *testing.T) {
	repo := newMockRecordRepository()
	uc := newRecorder(t, repo, mockClock{now: fixedNow})
	req := signedRequest(t, 9, 90)

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, port.ErrDuplicateRecord):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
