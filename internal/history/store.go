package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/slotstore"
)

const (
	DefaultMaxItems = 50
	DefaultKey      = "queryHistory"
)

type Option func(*Store)

func WithMaxItems(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// Store is the bounded, most-recent-first list of query results. The
// in-memory list is authoritative; the slot only mirrors it.
type Store struct {
	mu       sync.Mutex
	slot     slotstore.Slot
	key      string
	maxItems int
	items    []model.QueryResult
}

func New(slot slotstore.Slot, opts ...Option) *Store {
	s := &Store{
		slot:     slot,
		key:      DefaultKey,
		maxItems: DefaultMaxItems,
		items:    make([]model.QueryResult, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing or
// unreadable payload yields an empty list.
func (s *Store) Load(ctx context.Context) []model.QueryResult {
	logger := logutil.GetLogger(ctx).With(zap.String("key", s.key))
	items := make([]model.QueryResult, 0)
	data, err := s.slot.Get(ctx, s.key)
	switch {
	case errors.Is(err, slotstore.ErrNotFound):
	case err != nil:
		logger.Warn("read history failed", zap.Error(err))
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			logger.Warn("history payload is corrupt, starting empty", zap.Error(err))
			items = make([]model.QueryResult, 0)
		}
	}
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}
	for i := range items {
		if items[i].Sources == nil {
			items[i].Sources = make([]model.Source, 0)
		}
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	logger.Info("history loaded", zap.Int("count", len(items)))
	return cloneAll(items)
}

// Save inserts result at the front, or replaces the entry with the same id
// in place, then persists the full list. Persistence errors are logged only.
func (s *Store) Save(ctx context.Context, result model.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result = result.Clone()
	if idx := s.indexLocked(result.ID); idx >= 0 {
		s.items[idx] = result
	} else {
		items := make([]model.QueryResult, 0, len(s.items)+1)
		items = append(items, result)
		items = append(items, s.items...)
		if len(items) > s.maxItems {
			items = items[:s.maxItems]
		}
		s.items = items
	}
	s.persistLocked(ctx)
}

// Update applies fn to the entry with the given id and saves it in place.
func (s *Store) Update(ctx context.Context, id string, fn func(*model.QueryResult)) (model.QueryResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.QueryResult{}, false
	}
	item := s.items[idx].Clone()
	fn(&item)
	item.ID = id
	s.items[idx] = item
	s.persistLocked(ctx)
	return item.Clone(), true
}

func (s *Store) List() []model.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.items)
}

func (s *Store) Get(id string) (model.QueryResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.QueryResult{}, false
	}
	return s.items[idx].Clone(), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexLocked(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) {
	logger := logutil.GetLogger(ctx).With(zap.String("key", s.key))
	data, err := json.Marshal(s.items)
	if err != nil {
		logger.Error("encode history failed", zap.Error(err))
		return
	}
	if err := s.slot.Put(ctx, s.key, data); err != nil {
		logger.Error("persist history failed", zap.Int("count", len(s.items)), zap.Error(err))
	}
}

func cloneAll(items []model.QueryResult) []model.QueryResult {
	out := make([]model.QueryResult, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
