package job

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/curio/internal/history"
	"github.com/xxxsen/curio/internal/slotstore"
)

const HistoryBackupJobName = "history_backup"

// HistoryBackupJob snapshots the in-memory history into a separate slot,
// under key plus the format's extension.
type HistoryBackupJob struct {
	store  *history.Store
	slot   slotstore.Slot
	key    string
	format string
}

func NewHistoryBackupJob(store *history.Store, slot slotstore.Slot, key, format string) *HistoryBackupJob {
	return &HistoryBackupJob{store: store, slot: slot, key: key, format: format}
}

func (j *HistoryBackupJob) Name() string {
	return HistoryBackupJobName
}

func (j *HistoryBackupJob) Run(ctx context.Context) error {
	if j.store == nil || j.slot == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := j.store.Export(&buf, j.format); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	key := j.objectKey()
	if err := j.slot.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("write backup %s: %w", key, err)
	}
	logutil.GetLogger(ctx).Debug("history backup written",
		zap.String("key", key),
		zap.Int("items", j.store.Len()),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}

func (j *HistoryBackupJob) objectKey() string {
	format := j.format
	if format == "" {
		format = history.FormatJSON
	}
	return j.key + "." + format
}
