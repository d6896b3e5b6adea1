package grpc

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/infrastructure/memory"
	"github.com/sentinelledger/sentinel/pkg/auth"
	"github.com/sentinelledger/sentinel/pkg/oracle"
	"github.com/sentinelledger/sentinel/pkg/testutil"
)

// --- Helpers ---

type fixedClock struct {
	t   time.Time
	err error
}

func (c fixedClock) Now() (time.Time, error) { return c.t, c.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func contextWithRoles(roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{Roles: roles})
}

func buildTestHandler(t *testing.T) *FraudLedgerHandler {
	t.Helper()
	store := memory.NewStore()
	authority, err := service.NewOracleAuthority(testutil.OracleAddress)
	require.NoError(t, err)
	clock := fixedClock{t: time.Unix(1_750_000_000, 0)}

	return NewFraudLedgerHandler(
		usecase.NewRecordFraudScore(store, oracle.Verifier{}, authority, clock),
		usecase.NewGetFraudRecord(store),
		testLogger(),
	)
}

func txHex(last byte) string {
	id := testutil.TxID(last)
	return hex.EncodeToString(id[:])
}

func signedRequest(t *testing.T, last byte, score int) *RecordFraudScoreRequest {
	t.Helper()
	return &RecordFraudScoreRequest{
		TransactionID: txHex(last),
		FraudScore:    int32(score),
		Signature:     testutil.SignSubmission(t, testutil.TxID(last), score),
	}
}

func requireGRPCCode(t *testing.T, err error, expected codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, expected, st.Code())
}

// --- Tests ---

func TestRecordFraudScore(t *testing.T) {
	t.Run("records a blocked transaction", func(t *testing.T) {
		h := buildTestHandler(t)
		resp, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), signedRequest(t, 1, 95))
		require.NoError(t, err)
		assert.Equal(t, "Blocked", resp.Record.ActionTaken)
		assert.Equal(t, int32(95), resp.Record.FraudScore)
		assert.Equal(t, int64(1_750_000_000), resp.Record.Timestamp)
		assert.Len(t, resp.Record.Address, 64)
	})

	t.Run("records an approved transaction", func(t *testing.T) {
		h := buildTestHandler(t)
		resp, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), signedRequest(t, 2, 79))
		require.NoError(t, err)
		assert.Equal(t, "Approved", resp.Record.ActionTaken)
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.RecordFraudScore(context.Background(), signedRequest(t, 1, 95))
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("requires the oracle role", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.RecordFraudScore(contextWithRoles(auth.RoleAuditor), signedRequest(t, 1, 95))
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("signature from another key returns PermissionDenied", func(t *testing.T) {
		h := buildTestHandler(t)
		other, err := oracle.GenerateSigner()
		require.NoError(t, err)
		sig, err := other.Sign(testutil.TxID(1), 95)
		require.NoError(t, err)

		_, err = h.RecordFraudScore(contextWithRoles(auth.RoleOracle), &RecordFraudScoreRequest{
			TransactionID: txHex(1),
			FraudScore:    95,
			Signature:     sig,
		})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("duplicate returns AlreadyExists", func(t *testing.T) {
		h := buildTestHandler(t)
		ctx := contextWithRoles(auth.RoleOracle)
		_, err := h.RecordFraudScore(ctx, signedRequest(t, 1, 95))
		require.NoError(t, err)

		_, err = h.RecordFraudScore(ctx, signedRequest(t, 1, 10))
		requireGRPCCode(t, err, codes.AlreadyExists)
	})

	t.Run("score out of range returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), signedRequest(t, 1, 101))
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("malformed transaction id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t)
		req := signedRequest(t, 1, 50)
		req.TransactionID = "xyz"
		_, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})
}

func TestGetFraudRecord(t *testing.T) {
	t.Run("finds by transaction id and address", func(t *testing.T) {
		h := buildTestHandler(t)
		created, err := h.RecordFraudScore(contextWithRoles(auth.RoleOracle), signedRequest(t, 3, 80))
		require.NoError(t, err)

		ctx := contextWithRoles(auth.RoleAuditor)
		byTx, err := h.GetFraudRecord(ctx, &GetFraudRecordRequest{TransactionID: txHex(3)})
		require.NoError(t, err)
		assert.Equal(t, created.Record, byTx.Record)

		byAddr, err := h.GetFraudRecord(ctx, &GetFraudRecordRequest{Address: created.Record.Address})
		require.NoError(t, err)
		assert.Equal(t, "Blocked", byAddr.Record.ActionTaken)
	})

	t.Run("unknown record returns NotFound", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.GetFraudRecord(contextWithRoles(auth.RoleAdmin), &GetFraudRecordRequest{TransactionID: txHex(9)})
		requireGRPCCode(t, err, codes.NotFound)
	})

	t.Run("empty request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.GetFraudRecord(contextWithRoles(auth.RoleAdmin), &GetFraudRecordRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("requires a reader role", func(t *testing.T) {
		h := buildTestHandler(t)
		_, err := h.GetFraudRecord(contextWithRoles("guest"), &GetFraudRecordRequest{TransactionID: txHex(9)})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})
}

func TestToStatus_ClockUnavailable(t *testing.T) {
	store := memory.NewStore()
	authority, err := service.NewOracleAuthority(testutil.OracleAddress)
	require.NoError(t, err)
	h := NewFraudLedgerHandler(
		usecase.NewRecordFraudScore(store, oracle.Verifier{}, authority, fixedClock{err: service.ErrClockUnavailable}),
		usecase.NewGetFraudRecord(store),
		testLogger(),
	)

	_, err = h.RecordFraudScore(contextWithRoles(auth.RoleOracle), signedRequest(t, 1, 95))
	requireGRPCCode(t, err, codes.Unavailable)
	assert.Zero(t, store.Pending())
}

func TestServer_EndToEnd(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "sentinel-test",
		Expiration: time.Hour,
	})
	require.NoError(t, err)

	srv, err := NewServer(buildTestHandler(t), ServerConfig{}, jwtSvc, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := NewFraudLedgerServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("rejects calls without a token", func(t *testing.T) {
		_, err := client.RecordFraudScore(ctx, signedRequest(t, 1, 95))
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("records and reads back with a valid token", func(t *testing.T) {
		token, err := jwtSvc.GenerateToken("oracle-1", []string{auth.RoleOracle})
		require.NoError(t, err)
		authCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		created, err := client.RecordFraudScore(authCtx, signedRequest(t, 1, 95))
		require.NoError(t, err)
		assert.Equal(t, "Blocked", created.Record.ActionTaken)

		got, err := client.GetFraudRecord(authCtx, &GetFraudRecordRequest{Address: created.Record.Address})
		require.NoError(t, err)
		assert.Equal(t, created.Record, got.Record)
	})
}
