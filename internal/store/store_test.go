package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pascomapp/tally-sync/internal/tally"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "dados.json"), testLogger())
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	m := tally.CountMap{
		"Paróquia São José":   7,
		"Paróquia Santa Cruz": 3,
		"Catedral":            7,
	}

	require.NoError(t, s.Save(m))

	assert.Equal(t, m, s.Load())
}

func TestStore_Load_MissingFile(t *testing.T) {
	s := newTestStore(t)

	got := s.Load()

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_Load_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("not json at all"), 0o644))

	got := s.Load()

	assert.Empty(t, got)
}

func TestStore_Load_DropsInvalidEntries(t *testing.T) {
	s := newTestStore(t)
	content := `{"": 3, "Paróquia São José": 2, "Paróquia Santa Cruz": -1}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))

	got := s.Load()

	assert.Equal(t, tally.CountMap{"Paróquia São José": 2}, got)
}

func TestStore_Save_OrdersByCountDescending(t *testing.T) {
	s := newTestStore(t)
	m := tally.CountMap{
		"baixo": 1,
		"alto":  9,
		"meio":  4,
	}

	require.NoError(t, s.Save(m))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	content := string(data)
	assert.Less(t, strings.Index(content, "alto"), strings.Index(content, "meio"))
	assert.Less(t, strings.Index(content, "meio"), strings.Index(content, "baixo"))
}

func TestStore_Save_TiesAlphabetical(t *testing.T) {
	s := newTestStore(t)
	m := tally.CountMap{
		"bravo":   2,
		"alfa":    2,
		"charlie": 2,
	}

	require.NoError(t, s.Save(m))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	content := string(data)
	assert.Less(t, strings.Index(content, "alfa"), strings.Index(content, "bravo"))
	assert.Less(t, strings.Index(content, "bravo"), strings.Index(content, "charlie"))
}

func TestStore_Save_FileShape(t *testing.T) {
	s := newTestStore(t)
	m := tally.CountMap{"Paróquia São José": 2}

	require.NoError(t, s.Save(m))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	content := string(data)
	// Two-space indentation and literal UTF-8, no \u escapes.
	assert.True(t, strings.HasPrefix(content, "{\n  \""), "content: %q", content)
	assert.Contains(t, content, "Paróquia São José")
	assert.NotContains(t, content, `\u`)
}

func TestStore_Save_EmptyTally(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(tally.CountMap{}))

	got := s.Load()
	assert.Empty(t, got)
}

func TestStore_Save_ReplacesWholeFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(tally.CountMap{"primeiro": 1, "segundo": 2}))
	require.NoError(t, s.Save(tally.CountMap{"terceiro": 3}))

	assert.Equal(t, tally.CountMap{"terceiro": 3}, s.Load())
}

func TestStore_Save_LeavesNoTempFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(tally.CountMap{"a": 1}))

	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Save_ErrorOnMissingDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "dados.json"), testLogger())

	err := s.Save(tally.CountMap{"a": 1})

	assert.Error(t, err)
}
