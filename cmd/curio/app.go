package main

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/curio/internal/ai"
	"github.com/xxxsen/curio/internal/citation"
	"github.com/xxxsen/curio/internal/config"
	"github.com/xxxsen/curio/internal/history"
	"github.com/xxxsen/curio/internal/search"
	"github.com/xxxsen/curio/internal/service"
	"github.com/xxxsen/curio/internal/slotstore"
)

type app struct {
	cfg      *config.Config
	slot     slotstore.Slot
	history  *history.Store
	answers  *service.AnswerService
	renderer *citation.Renderer
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	slot, err := slotstore.New(cfg.History.Store)
	if err != nil {
		return nil, fmt.Errorf("init history store: %w", err)
	}
	a := &app{cfg: cfg, slot: slot}
	a.track(slot)

	a.history = history.New(slot, history.WithMaxItems(cfg.History.MaxItems), history.WithKey(cfg.History.Key))
	loaded := a.history.Load(ctx)
	logutil.GetLogger(ctx).Info("history loaded", zap.Int("items", len(loaded)), zap.String("store", cfg.History.Store.Type))

	searcher, err := search.NewProvider(cfg.Search.Provider, cfg.Search.Data)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init search provider: %w", err)
	}
	searcher = search.WithCache(searcher, cfg.Search.CacheSize, time.Duration(cfg.Search.CacheTTL)*time.Second)
	if config.Enabled(cfg.Search.Fallback) {
		searcher = search.WithFallback(searcher)
	}

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := service.DefaultAnswerOptions()
	opts.SearchDepth = search.Depth(cfg.Search.Depth)
	opts.MaxResults = cfg.Search.MaxResults
	opts.Topic = cfg.Search.Topic
	opts.Days = cfg.Search.Days
	opts.Generation = ai.Options{
		Temperature: cfg.AI.Temperature,
		TopP:        cfg.AI.TopP,
		TopK:        cfg.AI.TopK,
		MaxTokens:   cfg.AI.MaxTokens,
	}
	a.answers = service.NewAnswerService(searcher, generator, service.NewBuilder(), a.history, opts)
	a.renderer = citation.NewRenderer(citation.RendererConfig{
		CacheSize:      cfg.Render.CacheSize,
		CacheTTL:       time.Duration(cfg.Render.CacheTTL) * time.Second,
		PreviewSources: cfg.Render.PreviewSources,
	})
	return a, nil
}

func buildGenerator(cfg config.AIConfig) (ai.IGenerator, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	entries := make([]ai.GeneratorEntry, 0, len(cfg.Providers))
	for _, item := range cfg.Providers {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Name, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      item.Name,
			Generator: ai.NewGenerator(provider, item.Model, timeout),
		})
	}
	generator := ai.NewGroupGenerator(entries)
	if generator == nil {
		return nil, fmt.Errorf("no ai provider configured")
	}
	if config.Enabled(cfg.Fallback) {
		generator = ai.WithApology(generator)
	}
	return generator, nil
}

// backupSlot opens the slot backups are written to, reusing the history
// slot when both point at the same store.
func (a *app) backupSlot() (slotstore.Slot, error) {
	if a.cfg.Backup.Store.Type == "" || reflect.DeepEqual(a.cfg.Backup.Store, a.cfg.History.Store) {
		return a.slot, nil
	}
	slot, err := slotstore.New(a.cfg.Backup.Store)
	if err != nil {
		return nil, fmt.Errorf("init backup store: %w", err)
	}
	a.track(slot)
	return slot, nil
}

func (a *app) track(slot slotstore.Slot) {
	if c, ok := slot.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logutil.GetLogger(context.Background()).Error("close store failed", zap.Error(err))
		}
	}
	a.closers = nil
}
