package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/config"
	"github.com/sklau6/RustLLMRunner/pkg/debug"
	"github.com/sklau6/RustLLMRunner/pkg/logger"
	"github.com/sklau6/RustLLMRunner/pkg/observability"
	"github.com/sklau6/RustLLMRunner/pkg/provider"
	"github.com/sklau6/RustLLMRunner/pkg/provider/litellm"
	"github.com/sklau6/RustLLMRunner/pkg/provider/ollama"
	"github.com/sklau6/RustLLMRunner/pkg/provider/openaicompat"
)

// app is the state shared by the chat subcommands for one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer
	style  styles

	flags struct {
		configPath  string
		baseURL     string
		apiKey      string
		model       string
		provider    string
		debug       string
		system      string
		temperature float64
		maxTokens   int
	}

	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error
	prov     provider.Provider
}

// Run executes the chat command line with args and releases every resource
// it acquired, including writing the metrics textfile when configured.
func Run(ctx context.Context, args []string, out, errOut io.Writer) error {
	a := &app{out: out, errOut: errOut, style: newStyles(out)}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if serr := a.shutdown(); serr != nil && err == nil {
		err = serr
	}
	return err
}

// setup loads configuration, applies flag overrides and builds the logger
// and provider.
func (a *app) setup(changed func(string) bool) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}

	if changed("base-url") {
		cfg.Client.BaseURL = a.flags.baseURL
	}
	if changed("api-key") {
		cfg.Client.APIKey = a.flags.apiKey
	}
	if changed("model") {
		cfg.Client.Model = a.flags.model
	}
	if changed("provider") {
		cfg.Client.Provider = a.flags.provider
	}
	if changed("debug") {
		cfg.Log.Debug = a.flags.debug
	}
	if changed("temperature") {
		t := a.flags.temperature
		cfg.Request.Temperature = &t
	}
	if changed("max-tokens") {
		n := a.flags.maxTokens
		cfg.Request.MaxTokens = &n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.log, a.closeLog = log, closeLog
	debug.Init(log, cfg.Log.Debug)
	debug.Log("config", "configuration loaded",
		zap.String("provider", cfg.Client.Provider),
		zap.String("base_url", cfg.Client.BaseURL),
		zap.String("model", cfg.Client.Model),
	)

	prov, err := newProvider(cfg.Client, log)
	if err != nil {
		return err
	}
	a.prov = prov
	return nil
}

// newProvider builds the backend selected by cfg.Provider.
func newProvider(cfg config.ClientConfig, log *zap.Logger) (provider.Provider, error) {
	switch cfg.Provider {
	case provider.KindOllama:
		return ollama.New(ollama.Config{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			StreamIdleTimeout: cfg.StreamIdleTimeout,
			Headers:           cfg.Headers,
			Logger:            log,
		})
	case provider.KindLiteLLM:
		return litellm.New(litellm.Config{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			StreamIdleTimeout: cfg.StreamIdleTimeout,
			Headers:           cfg.Headers,
			ModelMapping:      cfg.ModelMapping,
			Logger:            log,
		})
	case provider.KindOpenAI, "":
		return openaicompat.NewClient(openaicompat.Config{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			StreamIdleTimeout: cfg.StreamIdleTimeout,
			Headers:           cfg.Headers,
		}, openaicompat.WithLogger(log))
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// request builds a chat request for prompt from the configured defaults.
func (a *app) request(prompt string, streaming bool) (*api.CompletionRequest, error) {
	var msgs []api.Message
	if a.flags.system != "" {
		msgs = append(msgs, api.Message{Role: api.RoleSystem, Content: a.flags.system})
	}
	msgs = append(msgs, api.Message{Role: api.RoleUser, Content: prompt})

	return api.Build(a.cfg.Client.Model, msgs, a.requestOptions(streaming)...)
}

func (a *app) requestOptions(streaming bool) []api.Option {
	opts := []api.Option{api.WithStream(streaming)}
	if t := a.cfg.Request.Temperature; t != nil {
		opts = append(opts, api.WithTemperature(*t))
	}
	if n := a.cfg.Request.MaxTokens; n != nil {
		opts = append(opts, api.WithMaxTokens(*n))
	}
	if p := a.cfg.Request.TopP; p != nil {
		opts = append(opts, api.WithTopP(*p))
	}
	return opts
}

// shutdown closes the provider, exports metrics and flushes the logger.
func (a *app) shutdown() error {
	var err error
	if a.prov != nil {
		_ = a.prov.Close()
	}
	if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		err = observability.WriteTextfile(a.cfg.Metrics.Textfile)
		if err != nil && a.log != nil {
			a.log.Warn("metrics export failed", zap.Error(err))
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
	return err
}
