// Package cli implements the chat command line: one-shot and streamed
// completions against an OpenAI-compatible backend.
package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an OpenAI-compatible model server",
		Long: `chat sends chat completion requests to an OpenAI-compatible backend
(Ollama, vLLM, LiteLLM or OpenAI itself) and prints the reply, either all at
once or token by token as it streams in.`,
		Example: `  # One-shot completion
  chat complete "What is Rust programming language?"

  # Stream a reply token by token
  chat stream --temperature 0.7 "Write a short poem about coding"

  # Point at another server
  chat --base-url http://localhost:8000/v1 --model meta-llama/Llama-3-8B models`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags().Changed)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "config file (YAML or TOML)")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "backend base URL including /v1")
	pf.StringVar(&a.flags.apiKey, "api-key", "", "API key sent as a Bearer token")
	pf.StringVarP(&a.flags.model, "model", "m", "", "model identifier")
	pf.StringVar(&a.flags.provider, "provider", "", "backend kind: openai, ollama or litellm")
	pf.StringVar(&a.flags.debug, "debug", "", "debug categories, e.g. http,stream or all")
	pf.StringVarP(&a.flags.system, "system", "s", "", "system prompt sent before the user message")
	pf.Float64VarP(&a.flags.temperature, "temperature", "t", 0, "sampling temperature (0-2)")
	pf.IntVar(&a.flags.maxTokens, "max-tokens", 0, "maximum tokens to generate")

	root.AddCommand(
		a.completeCommand(),
		a.streamCommand(),
		a.modelsCommand(),
		a.demoCommand(),
	)
	return root
}
