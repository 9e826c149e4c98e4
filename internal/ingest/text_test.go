package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCanHandle(t *testing.T) {
	assert.True(t, CanHandle("family.txt"))
	assert.True(t, CanHandle("FAMILY.TXT"))
	assert.True(t, CanHandle("family"))
	assert.False(t, CanHandle("family.json"))
	assert.False(t, CanHandle("notes.md"))
}

func TestImportFile(t *testing.T) {
	path := writeFile(t, "smiths.txt", "NAME: Bob\r\nNAME: Alice; PARENTS: Bob\r\n")

	data, err := newTestEngine().ImportFile(context.Background(), path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc, 2)
	assert.Equal(t, 1, mustFind(t, doc, "Alice").Level)
}

func TestImportFile_Unsupported(t *testing.T) {
	path := writeFile(t, "tree.json", "[]")
	_, err := newTestEngine().ImportFile(context.Background(), path)
	require.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Equal(t, KindUnsupportedFile, Kind(err))
}

func TestImportFile_Empty(t *testing.T) {
	path := writeFile(t, "empty.txt", "  \n")
	_, err := newTestEngine().ImportFile(context.Background(), path)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestImportFile_TooLarge(t *testing.T) {
	path := writeFile(t, "big.txt", "NAME: Alice\nNAME: Bob\n")
	e := NewEngine(Options{MaxFileSize: 4}, nil)
	_, err := e.ImportFile(context.Background(), path)
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, KindFileTooLarge, Kind(err))
	assert.True(t, IsUserError(err))
	assert.Equal(t, "file too large (22 bytes, max 4)", err.Error())
}

func TestImportFile_Missing(t *testing.T) {
	_, err := newTestEngine().ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportFile_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEngine().ImportFile(ctx, "family.txt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptionsNormalize(t *testing.T) {
	e := NewEngine(Options{MaxRounds: -3}, nil)
	assert.Equal(t, DefaultMaxRounds, e.Options().MaxRounds)
	assert.Equal(t, int64(DefaultMaxFileSize), e.Options().MaxFileSize)
}
