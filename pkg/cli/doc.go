// Package cli holds the plumbing shared by the normabot commands:
// kubectl-style configuration contexts, output formatting with optional
// jq filtering, request-file loading, log capture and the bordered frame
// used by the call screen.
//
// Configuration lives in ~/.normacomex/normabot/config.yaml:
//
//	cfg, err := cli.LoadConfig("normabot")
//	ctx, err := cfg.Resolve("")
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON, Query: ".[] | .id"})
package cli
