package main

import (
	"fmt"
	"runtime"
)

// Version information, set at build time with
// -ldflags "-X main.version=1.0.0 -X main.commit=abc123".
var (
	version   = "0.1.0"
	commit    = "unknown"
	buildDate = "unknown"
)

func versionCmd(_ []string) error {
	if !flags.verbose {
		fmt.Fprintf(stdout, "obacodec %s\n", version)
		return nil
	}
	fmt.Fprintf(stdout, "obacodec version %s\n", version)
	fmt.Fprintf(stdout, "  Commit:     %s\n", commit)
	fmt.Fprintf(stdout, "  Built:      %s\n", buildDate)
	fmt.Fprintf(stdout, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(stdout, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}
