package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/curio/internal/ai"
	"github.com/xxxsen/curio/internal/history"
	"github.com/xxxsen/curio/internal/model"
	appErr "github.com/xxxsen/curio/internal/pkg/errors"
	"github.com/xxxsen/curio/internal/search"
)

const ErrorAnswer = "I'm sorry, but I encountered an error while processing your request. Please try again later."

type AnswerOptions struct {
	SearchDepth search.Depth
	MaxResults  int
	// Topic and Days are passed to the search provider as is; zero values
	// leave the provider defaults.
	Topic      string
	Days       int
	Generation ai.Options
}

func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptions{
		SearchDepth: search.DepthAdvanced,
		MaxResults:  5,
		Generation:  ai.Options{Temperature: ai.Float32(0.2)},
	}
}

// Outcome is the terminal state of one Answer call. Failed is set when the
// result carries ErrorAnswer.
type Outcome struct {
	Result model.QueryResult `json:"result"`
	Failed bool              `json:"failed"`
	Run    Run               `json:"run"`
}

// AnswerService runs question -> search -> generation -> result and tracks the
// current result. Concurrent calls are independent; the last to finish becomes
// current.
type AnswerService struct {
	searcher  search.IProvider
	generator ai.IGenerator
	builder   *Builder
	history   *history.Store
	opts      AnswerOptions
	now       func() time.Time

	mu      sync.Mutex
	current *model.QueryResult
	runs    map[string]*Run
}

func NewAnswerService(searcher search.IProvider, generator ai.IGenerator, builder *Builder, store *history.Store, opts AnswerOptions) *AnswerService {
	if opts.SearchDepth == "" {
		opts.SearchDepth = search.DepthAdvanced
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	return &AnswerService{
		searcher:  searcher,
		generator: generator,
		builder:   builder,
		history:   store,
		opts:      opts,
		now:       time.Now,
		runs:      make(map[string]*Run),
	}
}

// Answer never fails: provider errors end in a persisted result whose answer
// is ErrorAnswer. Each provider is called at most once.
func (s *AnswerService) Answer(ctx context.Context, question string) Outcome {
	run := s.startRun(question)
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", run.ID))
	logger.Info("answer started", zap.String("question", question))

	resp, err := s.searcher.Search(ctx, search.Request{
		Query:       question,
		SearchDepth: s.opts.SearchDepth,
		MaxResults:  s.opts.MaxResults,
		Topic:       s.opts.Topic,
		Days:        s.opts.Days,
	})
	if err != nil {
		return s.fail(ctx, run, question, "search", err)
	}
	if resp == nil {
		return s.fail(ctx, run, question, "search", appErr.ErrInternal)
	}
	sources := s.builder.NewSources(resp.Results)
	prompt, err := ai.BuildAnswerPrompt(question, sources)
	if err != nil {
		return s.fail(ctx, run, question, "prompt", err)
	}
	if err := s.advance(ctx, run, StateGenerating); err != nil {
		return s.fail(ctx, run, question, "state", err)
	}
	text, err := s.generator.Generate(ctx, prompt, s.opts.Generation)
	if err != nil {
		return s.fail(ctx, run, question, "generate", err)
	}
	result := s.builder.Build(question, text, sources)
	if err := s.advance(ctx, run, StateDone); err != nil {
		return s.fail(ctx, run, question, "state", err)
	}
	s.history.Save(ctx, result)
	s.setCurrent(result)
	final := s.finishRun(run)
	logger.Info("answer done", zap.Int("sources", len(sources)), zap.Duration("duration", final.UpdatedAt.Sub(final.StartedAt)))
	return Outcome{Result: result.Clone(), Run: final}
}

func (s *AnswerService) fail(ctx context.Context, run *Run, question, stage string, cause error) Outcome {
	logutil.GetLogger(ctx).Error("answer failed",
		zap.String("run_id", run.ID),
		zap.String("stage", stage),
		zap.Error(cause),
	)
	result := s.builder.Build(question, ErrorAnswer, nil)
	s.mu.Lock()
	_ = run.moveTo(StateError, s.now())
	s.mu.Unlock()
	s.history.Save(ctx, result)
	s.setCurrent(result)
	return Outcome{Result: result.Clone(), Failed: true, Run: s.finishRun(run)}
}

func (s *AnswerService) startRun(question string) *Run {
	now := s.now()
	run := &Run{ID: newID(), Question: question, State: StateIdle, StartedAt: now, UpdatedAt: now}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = run.moveTo(StateSearching, now)
	s.runs[run.ID] = run
	return run
}

func (s *AnswerService) advance(ctx context.Context, run *Run, next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := run.State
	if err := run.moveTo(next, s.now()); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("run state changed",
		zap.String("run_id", run.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return nil
}

func (s *AnswerService) finishRun(run *Run) Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, run.ID)
	return *run
}

func (s *AnswerService) setCurrent(result model.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := result.Clone()
	s.current = &r
}

func (s *AnswerService) Current() (model.QueryResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.QueryResult{}, false
	}
	return s.current.Clone(), true
}

// Loading reports whether any question is still in flight.
func (s *AnswerService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs) > 0
}

// Runs returns the in-flight runs, oldest first.
func (s *AnswerService) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// ToggleFeedback applies the user's selection to a result: choosing the
// active value clears it.
func (s *AnswerService) ToggleFeedback(ctx context.Context, id string, selected model.Feedback) (model.QueryResult, error) {
	if _, ok := model.ParseFeedback(string(selected)); !ok {
		return model.QueryResult{}, appErr.ErrInvalid
	}
	updated, ok := s.history.Update(ctx, id, func(r *model.QueryResult) {
		r.Feedback = r.Feedback.Toggle(selected)
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == id {
		if ok {
			s.current.Feedback = updated.Feedback
		} else {
			// Evicted from history but still on screen.
			s.current.Feedback = s.current.Feedback.Toggle(selected)
			updated, ok = s.current.Clone(), true
		}
	}
	if !ok {
		return model.QueryResult{}, appErr.ErrNotFound
	}
	logutil.GetLogger(ctx).Info("feedback updated", zap.String("id", id), zap.String("feedback", string(updated.Feedback)))
	return updated, nil
}

// Select makes a past result current.
func (s *AnswerService) Select(id string) (model.QueryResult, error) {
	result, ok := s.history.Get(id)
	if !ok {
		return model.QueryResult{}, appErr.ErrNotFound
	}
	s.setCurrent(result)
	return result, nil
}

// Result looks up a past result without changing the current one.
func (s *AnswerService) Result(id string) (model.QueryResult, error) {
	result, ok := s.history.Get(id)
	if !ok {
		return model.QueryResult{}, appErr.ErrNotFound
	}
	return result, nil
}

// Reset clears the current result, as when starting a new chat.
func (s *AnswerService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *AnswerService) History() []model.QueryResult {
	return s.history.List()
}
