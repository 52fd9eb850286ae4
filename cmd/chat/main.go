// Command chat talks to an OpenAI-compatible chat completion server.
//
// Configuration is read from a YAML or TOML file (--config, RUNNER_CONFIG,
// or ./config.yaml), then RUNNER_* and OPENAI_* environment variables, then
// flags. Ctrl-C cancels an in-flight request.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sklau6/RustLLMRunner/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		cli.PrintError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
