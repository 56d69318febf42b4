package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErr "github.com/xxxsen/curio/internal/pkg/errors"
)

const (
	defaultTavilyBaseURL    = "https://api.tavily.com/v1"
	defaultTavilyMaxResults = 5
	defaultTavilyTimeout    = 30
	defaultTavilyRate       = 1.0
	maxErrorBody            = 512
	untitledSource          = "Untitled source"
)

type tavilyConfig struct {
	APIKey    string  `json:"api_key"`
	BaseURL   string  `json:"base_url"`
	Timeout   int     `json:"timeout"`
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
}

type tavilyProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// tavilyResponse keeps Results as a pointer so a missing array can be told
// apart from an empty one.
type tavilyResponse struct {
	Query   string    `json:"query"`
	Answer  string    `json:"answer"`
	Results *[]Result `json:"results"`
}

func (p *tavilyProvider) Name() string {
	return "tavily"
}

func (p *tavilyProvider) Search(ctx context.Context, req Request) (*Response, error) {
	if p.apiKey == "" {
		return nil, appErr.ErrUnavailable
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search query is empty: %w", appErr.ErrInvalid)
	}
	if req.SearchDepth == "" {
		req.SearchDepth = DepthAdvanced
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultTavilyMaxResults
	}
	if req.IncludeAnswer == nil {
		include := true
		req.IncludeAnswer = &include
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tavily rate limit wait: %w", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	logutil.GetLogger(ctx).Debug("tavily search done",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ResponseError{Provider: p.Name(), Status: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}
	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ResponseError{Provider: p.Name(), Reason: "decode response: " + err.Error()}
	}
	return p.validate(req, out)
}

func (p *tavilyProvider) validate(req Request, out tavilyResponse) (*Response, error) {
	if out.Results == nil {
		return nil, &ResponseError{Provider: p.Name(), Reason: "response has no results field"}
	}
	results := make([]Result, 0, len(*out.Results))
	// Results without a URL are kept so that numbering follows the provider's
	// order; they render as unlinkable sources.
	for _, item := range *out.Results {
		item.URL = strings.TrimSpace(item.URL)
		if strings.TrimSpace(item.Title) == "" {
			item.Title = item.URL
		}
		if strings.TrimSpace(item.Title) == "" {
			item.Title = untitledSource
		}
		if item.Domain == "" && item.URL != "" {
			item.Domain = ExtractDomain(item.URL)
		}
		results = append(results, item)
	}
	query := out.Query
	if query == "" {
		query = req.Query
	}
	return &Response{Query: query, Answer: out.Answer, Results: results}, nil
}

func createTavilyFactory(args interface{}) (IProvider, error) {
	cfg := &tavilyConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTavilyTimeout
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Limit(defaultTavilyRate)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	return &tavilyProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
	}, nil
}

func init() {
	Register("tavily", createTavilyFactory)
}
