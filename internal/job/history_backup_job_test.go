package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/xxxsen/curio/internal/history"
	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/slotstore"
)

type memSlot struct {
	data   map[string][]byte
	putErr error
}

func (m *memSlot) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, slotstore.ErrNotFound
	}
	return v, nil
}

func (m *memSlot) Put(ctx context.Context, key string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func seededStore(t *testing.T) *history.Store {
	t.Helper()
	store := history.New(&memSlot{data: map[string][]byte{}})
	ctx := context.Background()
	store.Save(ctx, model.QueryResult{ID: "a", Question: "first", Answer: "one [1]", Timestamp: time.Unix(100, 0).UTC()})
	store.Save(ctx, model.QueryResult{ID: "b", Question: "second", Answer: "two", Timestamp: time.Unix(200, 0).UTC(), Feedback: model.FeedbackUpvote})
	return store
}

func TestHistoryBackupJobJSON(t *testing.T) {
	target := &memSlot{data: map[string][]byte{}}
	job := NewHistoryBackupJob(seededStore(t), target, "backup", history.FormatJSON)
	require.Equal(t, "history_backup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var items []model.QueryResult
	require.NoError(t, json.Unmarshal(target.data["backup.json"], &items))
	require.Len(t, items, 2)
	require.Equal(t, "b", items[0].ID)
	require.Equal(t, model.FeedbackUpvote, items[0].Feedback)
	require.Equal(t, model.FeedbackNone, items[1].Feedback)
}

func TestHistoryBackupJobYAML(t *testing.T) {
	target := &memSlot{data: map[string][]byte{}}
	job := NewHistoryBackupJob(seededStore(t), target, "backup", history.FormatYAML)
	require.NoError(t, job.Run(context.Background()))

	var items []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(target.data["backup.yaml"], &items))
	require.Len(t, items, 2)
	require.Equal(t, "second", items[0]["question"])
	require.Nil(t, items[1]["feedback"])
}

func TestHistoryBackupJobErrors(t *testing.T) {
	store := seededStore(t)
	err := NewHistoryBackupJob(store, &memSlot{data: map[string][]byte{}}, "backup", "xml").Run(context.Background())
	require.Error(t, err)

	boom := errors.New("boom")
	err = NewHistoryBackupJob(store, &memSlot{data: map[string][]byte{}, putErr: boom}, "backup", history.FormatJSON).Run(context.Background())
	require.ErrorIs(t, err, boom)

	require.NoError(t, NewHistoryBackupJob(nil, nil, "backup", history.FormatJSON).Run(context.Background()))
}
