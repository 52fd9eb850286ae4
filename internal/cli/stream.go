package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

func (a *app) streamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stream <prompt>",
		Short: "Send a prompt and print the reply as it streams",
		Long: `stream prints each text fragment as soon as it arrives. Interrupting
with Ctrl-C stops the stream and keeps the text received so far.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.stream(cmd.Context(), strings.Join(args, " "))
			return err
		},
	}
}

// stream runs one streamed completion, echoing fragments to the output.
// A cancelled stream is reported as interrupted rather than failed.
func (a *app) stream(ctx context.Context, prompt string) (stream.Result, error) {
	req, err := a.request(prompt, true)
	if err != nil {
		return stream.Result{}, err
	}

	res, err := a.prov.StreamCompletion(ctx, req, func(f stream.Fragment) {
		fmt.Fprint(a.out, f.Text)
	})
	fmt.Fprintln(a.out)

	switch {
	case err == nil:
		if res.FinishReason == api.FinishReasonLength {
			fmt.Fprintln(a.errOut, a.style.Warn.Render("[truncated at max_tokens]"))
		}
		return res, nil
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(a.errOut, a.style.Warn.Render(
			fmt.Sprintf("[interrupted after %d characters]", len(res.Text))))
		return res, nil
	default:
		return res, err
	}
}
