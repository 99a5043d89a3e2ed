package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestor_IngestWalksMarkdown(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, docsDir, "install.md", "# Install\n\nUse the package manager.\n")
	writeDoc(t, docsDir, filepath.Join("guides", "staking.md"), "# Staking\n\nDelegate tokens to a validator.\n")
	writeDoc(t, docsDir, "notes.txt", "plain text files are ignored entirely")

	ix := newTestIndex(t)
	in := NewIngestor(ix)

	n, err := in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	docs, err := ix.Retrieve(context.Background(), "delegate tokens")
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, filepath.Join("guides", "staking.md"), docs[0].Source)

	// Non-markdown files never reach the index.
	docs, err = ix.Retrieve(context.Background(), "ignored entirely")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestor_SkipsWhenPopulated(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# A\n\nfirst version\n")

	ix := newTestIndex(t)
	in := NewIngestor(ix)

	n, err := in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIngestor_ForceReingests(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# A\n\nbody\n")

	ix := newTestIndex(t)
	in := NewIngestor(ix)

	_, err := in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)

	n, err := in.Ingest(context.Background(), docsDir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngestor_ErrorWhenNoDocuments(t *testing.T) {
	ix := newTestIndex(t)
	in := NewIngestor(ix)

	_, err := in.Ingest(context.Background(), t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no markdown documents")
}

func TestIngestor_IngestFileReplacesChunks(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# A\n\noriginal wording\n")

	ix := newTestIndex(t)
	in := NewIngestor(ix)

	_, err := in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)

	writeDoc(t, docsDir, "a.md", "# A\n\nrevised wording\n")
	n, err := in.IngestFile(context.Background(), docsDir, "a.md")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	docs, err := ix.Retrieve(context.Background(), "original wording")
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = ix.Retrieve(context.Background(), "revised wording")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngestor_RemoveDropsSource(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# A\n\nkeep me\n")
	writeDoc(t, docsDir, "b.md", "# B\n\ndrop me\n")

	ix := newTestIndex(t)
	in := NewIngestor(ix)

	_, err := in.Ingest(context.Background(), docsDir, false)
	require.NoError(t, err)

	require.NoError(t, in.Remove(context.Background(), "b.md"))

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
