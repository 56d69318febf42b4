package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

type Request struct {
	Query          string   `json:"query"`
	SearchDepth    Depth    `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	IncludeAnswer  *bool    `json:"include_answer,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	Days           int      `json:"days,omitempty"`
}

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Domain  string  `json:"domain"`
}

type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

type IProvider interface {
	Name() string
	Search(ctx context.Context, req Request) (*Response, error)
}

// ResponseError reports a provider reply that could not be turned into a Response.
type ResponseError struct {
	Provider string
	Status   int
	Reason   string
}

func (e *ResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s search failed: status %d: %s", e.Provider, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s search failed: %s", e.Provider, e.Reason)
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
		return nil, fmt.Errorf("search.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported search provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("search provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode search provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode search provider config: %w", err)
	}
	return nil
}

// ExtractDomain returns the host of raw without a leading "www.".
// Input that is not an absolute URL is returned unchanged.
func ExtractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
