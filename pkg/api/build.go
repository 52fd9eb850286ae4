package api

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultTemperature is sent when the caller does not choose one.
const DefaultTemperature = 1.0

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so Param matches the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Option sets one recognized request parameter.
type Option func(*options)

type options struct {
	temperature float64
	maxTokens   *int
	topP        *float64
	stop        []string
	stream      bool
}

// WithTemperature sets the sampling temperature, valid in [0, 2].
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithMaxTokens caps the number of generated tokens. Unset means the
// server default.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = &n }
}

// WithTopP sets nucleus sampling, valid in [0, 1].
func WithTopP(p float64) Option {
	return func(o *options) { o.topP = &p }
}

// WithStop sets up to four stop sequences.
func WithStop(stop ...string) Option {
	return func(o *options) { o.stop = slices.Clone(stop) }
}

// WithStream requests a token-streamed response.
func WithStream(stream bool) Option {
	return func(o *options) { o.stream = stream }
}

// Build assembles a CompletionRequest. It performs no I/O and fails only on
// structurally invalid input, returning an *APIError of type
// invalid_request whose Param names the offending JSON field.
func Build(model string, messages []Message, opts ...Option) (*CompletionRequest, error) {
	o := options{temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&o)
	}

	req := &CompletionRequest{
		Model:       model,
		Messages:    slices.Clone(messages),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		TopP:        o.topP,
		Stop:        o.stop,
		Stream:      o.stream,
	}

	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks a CompletionRequest built by hand. Build calls it.
func Validate(req *CompletionRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return NewInvalidRequestError("", err.Error())
	}

	if !slices.ContainsFunc(req.Messages, func(m Message) bool { return m.Role == RoleUser }) {
		return NewInvalidRequestError("messages", "messages must include at least one user message")
	}
	return nil
}

// fieldError converts a validator failure into an invalid_request APIError.
func fieldError(fe validator.FieldError) *APIError {
	// Namespace is "CompletionRequest.messages[0].role"; drop the type name.
	param := fe.Namespace()
	if _, rest, ok := strings.Cut(param, "."); ok {
		param = rest
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = param + " is required"
	case "min":
		msg = fmt.Sprintf("%s must contain at least %s entry", param, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must contain at most %s entries", param, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of [%s], got %q", param, fe.Param(), fe.Value())
	case "gt":
		msg = fmt.Sprintf("%s must be greater than %s", param, fe.Param())
	case "gte", "lte":
		msg = fmt.Sprintf("%s is out of range, got %v", param, fe.Value())
	default:
		msg = fmt.Sprintf("%s failed %q validation", param, fe.Tag())
	}
	return NewInvalidRequestError(param, msg)
}

// BuildFromMap is Build for untyped parameters (config files, CLI input).
// Recognized keys are temperature, max_tokens, top_p, stop and stream; any
// other key is rejected rather than silently ignored.
func BuildFromMap(model string, messages []Message, params map[string]any) (*CompletionRequest, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var opts []Option
	for _, key := range keys {
		val := params[key]
		switch key {
		case "temperature":
			f, ok := toFloat(val)
			if !ok {
				return nil, NewInvalidRequestError(key, fmt.Sprintf("temperature must be a number, got %T", val))
			}
			opts = append(opts, WithTemperature(f))
		case "top_p":
			f, ok := toFloat(val)
			if !ok {
				return nil, NewInvalidRequestError(key, fmt.Sprintf("top_p must be a number, got %T", val))
			}
			opts = append(opts, WithTopP(f))
		case "max_tokens":
			n, ok := toInt(val)
			if !ok {
				return nil, NewInvalidRequestError(key, fmt.Sprintf("max_tokens must be an integer, got %v", val))
			}
			opts = append(opts, WithMaxTokens(n))
		case "stream":
			b, ok := val.(bool)
			if !ok {
				return nil, NewInvalidRequestError(key, fmt.Sprintf("stream must be a boolean, got %T", val))
			}
			opts = append(opts, WithStream(b))
		case "stop":
			stop, ok := toStrings(val)
			if !ok {
				return nil, NewInvalidRequestError(key, "stop must be a string or a list of strings")
			}
			opts = append(opts, WithStop(stop...))
		default:
			return nil, NewInvalidRequestError(key, fmt.Sprintf("unrecognized option %q", key))
		}
	}

	return Build(model, messages, opts...)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		// JSON and YAML decoders hand integers over as float64.
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case string:
		return []string{s}, true
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
