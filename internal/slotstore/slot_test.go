package slotstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/curio/internal/config"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := slot.Get(ctx, "queryHistory")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, slot.Put(ctx, "queryHistory", []byte(`[1]`)))
	data, err := slot.Get(ctx, "queryHistory")
	require.NoError(t, err)
	require.Equal(t, `[1]`, string(data))

	require.NoError(t, slot.Put(ctx, "queryHistory", []byte(`[2,3]`)))
	data, err = slot.Get(ctx, "queryHistory")
	require.NoError(t, err)
	require.Equal(t, `[2,3]`, string(data))

	require.Error(t, slot.Put(ctx, "../escape", []byte(`x`)))
	_, err = slot.Get(ctx, "")
	require.Error(t, err)
}

func TestLocalSlot(t *testing.T) {
	dir := t.TempDir()
	slot, err := New(config.StoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	exerciseSlot(t, slot)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "queryHistory.json", entries[0].Name())
	_, err = os.Stat(filepath.Join(dir, "queryHistory.json"))
	require.NoError(t, err)
}

func TestSQLiteSlot(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "curio.db")
	slot, err := New(config.StoreConfig{Type: "sqlite", Data: map[string]interface{}{"dsn": dsn}})
	require.NoError(t, err)
	defer slot.(*sqlSlot).Close()
	exerciseSlot(t, slot)
}

func TestPostgresSlot(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping postgres test")
	}
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	_, _ = db.Exec("DROP TABLE IF EXISTS " + slotTable)
	slot, err := newSQLSlot(context.Background(), db, postgresDialect)
	require.NoError(t, err)
	defer slot.Close()
	exerciseSlot(t, slot)
}

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	if f.contentTypes != nil {
		f.contentTypes[*in.Bucket+"/"+*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Slot(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	exerciseSlot(t, newS3Slot(fake, "bucket", "/curio/"))
	require.Contains(t, fake.objects, "bucket/curio/queryHistory.json")
}

func TestS3SlotKeepsKeyExtension(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
	slot := newS3Slot(fake, "bucket", "")
	require.NoError(t, slot.Put(context.Background(), "queryHistory-backup.yaml", []byte("- id: a\n")))
	require.Contains(t, fake.objects, "bucket/queryHistory-backup.yaml")
	require.Equal(t, "application/yaml", fake.contentTypes["bucket/queryHistory-backup.yaml"])
}

func TestLocalSlotKeepsKeyExtension(t *testing.T) {
	dir := t.TempDir()
	slot, err := New(config.StoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.NoError(t, slot.Put(context.Background(), "queryHistory-backup.yaml", []byte("- id: a\n")))
	_, err = os.Stat(filepath.Join(dir, "queryHistory-backup.yaml"))
	require.NoError(t, err)
	data, err := slot.Get(context.Background(), "queryHistory-backup.yaml")
	require.NoError(t, err)
	require.Equal(t, "- id: a\n", string(data))
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.StoreConfig{Type: "redis"})
	require.Error(t, err)
	_, err = New(config.StoreConfig{})
	require.Error(t, err)
	_, err = New(config.StoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
}
