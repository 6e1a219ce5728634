// Command obacodec decodes, dumps and serves LDAP and Kerberos BER messages.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mjwhitta/cli"
)

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// options holds the global flags.
type options struct {
	config  string
	grammar string
	hex     string
	file    string
	verbose bool
}

var flags options

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	cli.Align = true
	cli.Authors = []string{"obacodec authors"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <command> [args...]", os.Args[0])
	cli.Info(
		"obacodec - incremental BER codec for LDAP and Kerberos",
		"",
		"Decodes messages with the same grammars the directory server",
		"uses, dumps raw TLV trees and runs an LDAP inspector.",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
		"2 - Missing argument",
	)

	cli.Flag(&flags.config, "c", "config", "", "TOML configuration file")
	cli.Flag(&flags.grammar, "g", "grammar", "LDAPMessage", "Grammar used by decode")
	cli.Flag(&flags.hex, "x", "hex", "", "Input as a hex string")
	cli.Flag(&flags.file, "f", "file", "", "Input file (- for stdin)")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Verbose output")

	cli.Section("Commands", commandList)
}

const commandList = `  decode    Decode messages with a grammar (-g)
  dump      Print the TLV tree of arbitrary BER
  serve     Run the LDAP inspector server
  grammars  List the available grammars
  version   Show version information
  help      Show this help`

func main() {
	cli.Parse()

	if cli.NArg() == 0 {
		cli.Usage(ExitMissingArg)
	}
	if cli.Arg(0) == "help" {
		cli.Usage(ExitSuccess)
	}
	os.Exit(run(cli.Arg(0), cli.Args()[1:]))
}

// run executes command and returns an exit code.
func run(command string, args []string) int {
	var err error
	switch command {
	case "decode":
		err = decodeCmd(args)
	case "dump":
		err = dumpCmd(args)
	case "serve":
		err = serveCmd(args)
	case "grammars":
		err = grammarsCmd(args)
	case "version":
		err = versionCmd(args)
	case "help":
		fmt.Fprintf(stdout, "Commands:\n%s\n", commandList)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		return ExitError
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
