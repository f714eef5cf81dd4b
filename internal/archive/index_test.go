package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "history.db"), quietLog())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ix.Close()
	})
	return ix
}

func TestIndex_RecordAndRecent(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	older := Entry{
		OriginalName:  "first.pdf",
		NewName:       "NFD 1 - ACME - 10-05-2024 - R$ 1,00.pdf",
		Status:        "Processed",
		InvoiceNumber: "1",
		TaxID:         "11222333000144",
		IssueDate:     "10/05/2024",
		TotalValue:    "1,00",
		ProcessedAt:   time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
	newer := Entry{
		OriginalName: "second.pdf",
		Status:       "Ignored",
		Message:      "invalid operation code: 9999 or operation nature: OUTROS",
	}

	require.NoError(t, ix.Record(ctx, older))
	require.NoError(t, ix.Record(ctx, newer))

	entries, err := ix.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "second.pdf", entries[0].OriginalName)
	assert.Equal(t, "Ignored", entries[0].Status)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.False(t, entries[0].ProcessedAt.IsZero())

	assert.Equal(t, "first.pdf", entries[1].OriginalName)
	assert.Equal(t, older.NewName, entries[1].NewName)
	assert.Equal(t, older.ProcessedAt, entries[1].ProcessedAt)
}

func TestIndex_RecentLimit(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, ix.Record(ctx, Entry{OriginalName: "f.pdf", Status: "Processed"}))
	}

	entries, err := ix.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestIndex_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	ix, err := OpenIndex(path, quietLog())
	require.NoError(t, err)
	require.NoError(t, ix.Record(ctx, Entry{OriginalName: "keep.pdf", Status: "Processed"}))
	require.NoError(t, ix.Close())

	ix, err = OpenIndex(path, quietLog())
	require.NoError(t, err)
	defer func() {
		_ = ix.Close()
	}()

	entries, err := ix.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.pdf", entries[0].OriginalName)
}
