package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sklau6/RustLLMRunner/pkg/api"
)

// Prompts used by the demo command.
const (
	demoSystemPrompt = "You are a helpful assistant."
	demoQuestion     = "What is Rust programming language?"
	demoPoemPrompt   = "Write a short poem about coding"
)

func (a *app) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a non-streaming and a streaming example",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a.style.heading(a.out, "Step 1: Non-streaming completion")
			req, err := api.Build(a.cfg.Client.Model, []api.Message{
				{Role: api.RoleSystem, Content: demoSystemPrompt},
				{Role: api.RoleUser, Content: demoQuestion},
			}, api.WithTemperature(0.7), api.WithMaxTokens(500))
			if err != nil {
				return err
			}
			resp, err := a.prov.Complete(ctx, req)
			if err != nil {
				return fmt.Errorf("non-streaming completion: %w", err)
			}
			fmt.Fprintf(a.out, "Response: %s\n", resp.Content())
			fmt.Fprintf(a.out, "Tokens used: %d\n", resp.Usage.TotalTokens)
			fmt.Fprintln(a.out)

			a.style.heading(a.out, "Step 2: Streaming completion")
			if _, err := a.stream(ctx, demoPoemPrompt); err != nil {
				return fmt.Errorf("streaming completion: %w", err)
			}
			return nil
		},
	}
}
