package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcpresentation "github.com/sentinelledger/sentinel/internal/presentation/grpc"
	"github.com/sentinelledger/sentinel/pkg/tlsutil"
)

// connFlags are shared by the commands that talk to fraudledgerd.
type connFlags struct {
	addr       string
	caFile     string
	token      string
	timeout    time.Duration
	plaintext  bool
	skipVerify bool
}

func (f *connFlags) register(cmd *flag.FlagSet) {
	cmd.StringVar(&f.addr, "addr", envOr("FRAUDLEDGER_ADDR", "localhost:9090"), "fraudledgerd gRPC address")
	cmd.StringVar(&f.caFile, "ca", "", "CA certificate for the server (system roots when empty)")
	cmd.StringVar(&f.token, "token", os.Getenv("FRAUDLEDGER_TOKEN"), "Bearer token (default $FRAUDLEDGER_TOKEN)")
	cmd.DurationVar(&f.timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.BoolVar(&f.plaintext, "plaintext", false, "Connect without TLS")
	cmd.BoolVar(&f.skipVerify, "insecure-skip-verify", false, "Skip server certificate verification")
}

func (f *connFlags) dial() (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if !f.plaintext {
		tlsCreds, err := tlsutil.ClientTLSConfig(f.caFile, f.skipVerify)
		if err != nil {
			return nil, err
		}
		creds = tlsCreds
	}
	return grpc.NewClient(f.addr, grpc.WithTransportCredentials(creds))
}

func (f *connFlags) context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	if f.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+f.token)
	}
	return ctx, cancel
}

func runSubmitCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("submit", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		conn   connFlags
		keyHex string
		txID   string
		score  int
	)
	conn.register(cmd)
	cmd.StringVar(&keyHex, "key", os.Getenv("ORACLE_PRIVATE_KEY"), "Oracle private key hex (default $ORACLE_PRIVATE_KEY)")
	cmd.StringVar(&txID, "tx", "", "Transaction id, 32 bytes hex (REQUIRED)")
	cmd.IntVar(&score, "score", -1, "Fraud score 0-100 (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	signature, code := signSubmission(keyHex, txID, score, stderr)
	if code != 0 {
		return code
	}

	cc, err := conn.dial()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cc.Close()

	ctx, cancel := conn.context()
	defer cancel()

	resp, err := grpcpresentation.NewFraudLedgerServiceClient(cc).RecordFraudScore(ctx, &grpcpresentation.RecordFraudScoreRequest{
		TransactionID: txID,
		FraudScore:    int32(score),
		Signature:     signature,
	})
	if err != nil {
		printStatus(stderr, err)
		return 1
	}
	return writeJSON(stdout, stderr, resp.Record)
}

func runGetCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("get", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		conn    connFlags
		txID    string
		address string
	)
	conn.register(cmd)
	cmd.StringVar(&txID, "tx", "", "Transaction id, 32 bytes hex")
	cmd.StringVar(&address, "address", "", "Record address, 32 bytes hex")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if txID == "" && address == "" {
		_, _ = fmt.Fprintln(stderr, "Error: one of --tx or --address is required")
		return 2
	}

	cc, err := conn.dial()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cc.Close()

	ctx, cancel := conn.context()
	defer cancel()

	resp, err := grpcpresentation.NewFraudLedgerServiceClient(cc).GetFraudRecord(ctx, &grpcpresentation.GetFraudRecordRequest{
		TransactionID: txID,
		Address:       address,
	})
	if err != nil {
		printStatus(stderr, err)
		return 1
	}
	return writeJSON(stdout, stderr, resp.Record)
}

func printStatus(w io.Writer, err error) {
	if st, ok := status.FromError(err); ok {
		_, _ = fmt.Fprintf(w, "Error: %s: %s\n", st.Code(), st.Message())
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
