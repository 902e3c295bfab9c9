// Conductor routes LLM generation requests across a set of providers.
//
// It tracks per-provider latency, success rate and cost, picks a provider
// with one of seven strategies, and hands callers an ordered fallback chain.
// Providers are declared in YAML and simulated, so routing behavior can be
// explored and load tested without calling real backends.
//
// Usage:
//
//	# Print the routing order for a prompt
//	conductor route --config conductor.yaml "Summarize this paragraph"
//
//	# Drive synthetic traffic and print the resulting metrics
//	conductor simulate --requests 500 --concurrency 8
//
//	# Check a configuration file
//	conductor validate --config conductor.yaml
//
//	# Expose /metrics, /health and /ready and hot reload the config
//	conductor serve --config conductor.yaml
package main

import (
	"fmt"
	"os"

	"mercator-hq/conductor/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
