package ai

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const FallbackAnswer = "I'm sorry, I couldn't generate an answer right now. Please try again later."

type apologyGenerator struct {
	next IGenerator
}

// WithApology wraps gen so that generation failures yield FallbackAnswer
// rather than an error.
func WithApology(gen IGenerator) IGenerator {
	return &apologyGenerator{next: gen}
}

func (g *apologyGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	text, err := g.next.Generate(ctx, prompt, opts)
	if err != nil {
		logutil.GetLogger(ctx).Error("generation failed, using fallback answer", zap.Error(err))
		return FallbackAnswer, nil
	}
	return text, nil
}
