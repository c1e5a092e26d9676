// Package cli holds the terminal helpers of the whisperedge command:
// result output in yaml, json, msgpack, raw or a rendered summary table,
// human-readable durations and sizes, and the ~/.whisperedge directory
// layout.
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
