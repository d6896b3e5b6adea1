package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/auth"
	"github.com/sentinelledger/sentinel/pkg/oracle"
	"github.com/sentinelledger/sentinel/pkg/tlsutil"
)

func runKeygenCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("keygen", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOutput := cmd.Bool("json", false, "Output as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	signer, err := oracle.GenerateSigner()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOutput {
		return writeJSON(stdout, stderr, map[string]string{
			"address":     signer.Address(),
			"private_key": signer.PrivateKeyHex(),
		})
	}
	_, _ = fmt.Fprintf(stdout, "address:     %s\n", signer.Address())
	_, _ = fmt.Fprintf(stdout, "private_key: %s\n", signer.PrivateKeyHex())
	return 0
}

func runSignCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		keyHex string
		txID   string
		score  int
	)
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
	_, _ = fmt.Fprintln(stdout, signature)
	return 0
}

// signSubmission validates the inputs locally and signs them.
func signSubmission(keyHex, txID string, score int, stderr io.Writer) (string, int) {
	if keyHex == "" || txID == "" || score < 0 {
		_, _ = fmt.Fprintln(stderr, "Error: --key, --tx and --score are required")
		return "", 2
	}
	id, err := valueobject.ParseTransactionID(txID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return "", 2
	}
	signer, err := oracle.NewSigner(keyHex)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return "", 2
	}
	signature, err := signer.Sign(id, score)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return "", 1
	}
	return signature, 0
}

func runTokenCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("token", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		secret  string
		issuer  string
		subject string
		roles   string
		ttl     time.Duration
	)
	cmd.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret (default $JWT_SECRET)")
	cmd.StringVar(&issuer, "issuer", os.Getenv("JWT_ISSUER"), "Token issuer (default $JWT_ISSUER)")
	cmd.StringVar(&subject, "subject", "fraudledgerctl", "Token subject")
	cmd.StringVar(&roles, "roles", auth.RoleOracle, "Comma-separated roles")
	cmd.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if secret == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --secret is required")
		return 2
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, Issuer: issuer, Expiration: ttl})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	token, err := svc.GenerateToken(subject, splitList(roles))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, token)
	return 0
}

func runCertsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("certs", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		outDir string
		hosts  string
	)
	cmd.StringVar(&outDir, "out", "certs", "Output directory")
	cmd.StringVar(&hosts, "hosts", "localhost,127.0.0.1", "Comma-separated DNS names and IPs")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if err := tlsutil.GenerateSelfSignedCert(splitList(hosts), outDir); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "wrote development certificates to %s\n", outDir)
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, string(data))
	return 0
}
