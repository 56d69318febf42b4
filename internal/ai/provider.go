package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	appErr "github.com/xxxsen/curio/internal/pkg/errors"
)

var (
	ErrUnavailable   = appErr.ErrUnavailable
	ErrEmptyResponse = errors.New("empty ai response")
)

const (
	DefaultTemperature float32 = 0.7
	DefaultTopK        float32 = 40
	DefaultTopP        float32 = 0.95
	DefaultMaxTokens   int32   = 1024
)

// Options carries sampling parameters. Nil pointers and zero MaxTokens take
// the defaults in WithDefaults.
type Options struct {
	Temperature *float32
	TopP        *float32
	TopK        *float32
	MaxTokens   int32
}

func (o Options) WithDefaults() Options {
	if o.Temperature == nil {
		o.Temperature = Float32(DefaultTemperature)
	}
	if o.TopP == nil {
		o.TopP = Float32(DefaultTopP)
	}
	if o.TopK == nil {
		o.TopK = Float32(DefaultTopK)
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

func Float32(v float32) *float32 {
	return &v
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string, opts Options) (string, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

type generator struct {
	provider IProvider
	model    string
	timeout  time.Duration
}

func NewGenerator(p IProvider, model string, timeout time.Duration) IGenerator {
	return &generator{provider: p, model: model, timeout: timeout}
}

func (g *generator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.provider.Generate(ctx, g.model, prompt, opts.WithDefaults())
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
