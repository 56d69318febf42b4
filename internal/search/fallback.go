package search

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	FallbackTitle   = "Search unavailable"
	FallbackContent = "Live web search results could not be retrieved for this question. " +
		"Answer from general knowledge and state that no sources were available."
)

type gracefulProvider struct {
	next IProvider
}

// WithFallback wraps p so that search failures produce a single placeholder
// result instead of an error.
func WithFallback(p IProvider) IProvider {
	return &gracefulProvider{next: p}
}

func (g *gracefulProvider) Name() string {
	return g.next.Name()
}

func (g *gracefulProvider) Search(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.next.Search(ctx, req)
	if err == nil && resp != nil {
		return resp, nil
	}
	logutil.GetLogger(ctx).Warn("search failed, using placeholder result",
		zap.String("provider", g.next.Name()),
		zap.String("query", req.Query),
		zap.Error(err),
	)
	return FallbackResponse(req.Query), nil
}

func FallbackResponse(query string) *Response {
	return &Response{
		Query: query,
		Results: []Result{{
			Title:   FallbackTitle,
			Content: FallbackContent,
		}},
	}
}
