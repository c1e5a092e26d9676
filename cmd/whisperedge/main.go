// Package main is the entry point for the whisperedge CLI.
//
// Usage:
//
//	whisperedge [flags] <command> [subcommand] [args]
//
// Commands:
//
//	serve       - Run the HTTP transcription service
//	transcribe  - Transcribe a WAV or raw s16le file
//	mel         - Compute the log-mel spectrogram of a file
//	filters     - Generate the Whisper mel filterbank asset
//	cache       - Inspect or purge the transcript cache (list, purge)
//	version     - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/whisperedge/cmd/whisperedge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
