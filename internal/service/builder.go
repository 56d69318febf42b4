package service

import (
	"time"

	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/search"
)

// Builder creates query results and sources with fresh ids. It performs no
// validation of the question or answer.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now, newID: newID}
}

func (b *Builder) Build(question, answer string, sources []model.Source) model.QueryResult {
	copied := make([]model.Source, len(sources))
	copy(copied, sources)
	return model.QueryResult{
		ID:        b.newID(),
		Question:  question,
		Answer:    answer,
		Sources:   copied,
		Timestamp: b.now(),
		Feedback:  model.FeedbackNone,
	}
}

// NewSources maps search results to sources in provider order; that order
// defines citation numbering.
func (b *Builder) NewSources(results []search.Result) []model.Source {
	sources := make([]model.Source, 0, len(results))
	for _, r := range results {
		domain := r.Domain
		if domain == "" {
			domain = search.ExtractDomain(r.URL)
		}
		sources = append(sources, model.Source{
			ID:      b.newID(),
			Title:   r.Title,
			URL:     r.URL,
			Domain:  domain,
			Snippet: r.Content,
		})
	}
	return sources
}
