// Command fraudledgerctl is the operator and oracle tool for fraudledgerd:
// it manages oracle keys, signs and submits fraud scores, and reads records.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches a subcommand and returns the process exit code:
// 0 on success, 1 when the command ran and failed, 2 on usage errors.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "keygen":
		return runKeygenCmd(args[2:], stdout, stderr)
	case "sign":
		return runSignCmd(args[2:], stdout, stderr)
	case "token":
		return runTokenCmd(args[2:], stdout, stderr)
	case "certs":
		return runCertsCmd(args[2:], stdout, stderr)
	case "submit":
		return runSubmitCmd(args[2:], stdout, stderr)
	case "get":
		return runGetCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage: fraudledgerctl <command> [flags]

Commands:
  keygen   Generate an oracle key pair
  sign     Sign a fraud score submission with an oracle key
  token    Mint a development JWT (HMAC secret)
  certs    Write a self-signed development CA and server certificate
  submit   Sign and submit a fraud score over gRPC
  get      Look up a fraud record over gRPC

Run 'fraudledgerctl <command> -h' for command flags.
`)
}
