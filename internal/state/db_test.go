package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.Record(ctx, Record{
		RunID: "run-1", Name: "a.zip", FileID: "A", DestPath: "/data/a.zip",
		Status: StatusCompleted, Bytes: 10, CreatedAt: base,
	}))
	require.NoError(t, s.Record(ctx, Record{
		RunID: "run-1", Name: "b.zip", FileID: "B", DestPath: "/data/b.zip",
		Status: StatusFailed, CreatedAt: base.Add(time.Minute),
	}))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "b.zip", records[0].Name, "newest first")
	assert.Equal(t, StatusFailed, records[0].Status)
	assert.Equal(t, "a.zip", records[1].Name)
	assert.EqualValues(t, 10, records[1].Bytes)
	assert.Equal(t, base.Unix(), records[1].CreatedAt.Unix())
	assert.NotEmpty(t, records[1].ID)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Error(t, s.Record(context.Background(), Record{Name: "a"}))
	_, err = s.List(context.Background(), 0)
	assert.Error(t, err)
}
