package updater

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pascomapp/tally-sync/internal/sheets"
	"github.com/pascomapp/tally-sync/internal/store"
	"github.com/pascomapp/tally-sync/internal/tabulate"
	"github.com/pascomapp/tally-sync/internal/tally"
)

type fakeFetcher struct {
	table *sheets.Table
	err   error
}

func (f *fakeFetcher) FetchTable(_ context.Context, _, _ string) (*sheets.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// signupTable builds a form-response table with one signup row per parish.
func signupTable(parishes ...string) *sheets.Table {
	rows := make([][]string, len(parishes))
	for i, parish := range parishes {
		rows[i] = []string{"20/08/2026 10:00:00", "Alguém", parish}
	}
	return &sheets.Table{
		Header: []string{"Carimbo de data/hora", "Nome", "Qual sua paróquia?"},
		Rows:   rows,
	}
}

func newTestUpdater(fetcher Fetcher, path string) *Updater {
	st := store.New(path, discardLogger())
	return New(fetcher, st, Options{SheetID: "sheet-test", GID: "0"}, discardLogger())
}

func TestUpdater_Run_MergesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	seed := store.New(path, discardLogger())
	require.NoError(t, seed.Save(tally.CountMap{
		"Paróquia São José":   5,
		"Paróquia Santa Cruz": 3,
	}))

	fetcher := &fakeFetcher{table: signupTable(
		"Paróquia São José",
		"Paróquia São José",
		"Paróquia Santa Cruz",
		"Paróquia Santa Cruz",
		"Paróquia Santa Cruz",
		"Paróquia Santa Cruz",
		"Comunidade Nossa Senhora",
	)}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Persisted)
	assert.Empty(t, result.Skip)
	assert.Equal(t, 7, result.Rows)
	assert.Equal(t, "Qual sua paróquia?", result.Column)
	assert.Equal(t, []string{"Comunidade Nossa Senhora"}, result.New)

	got := store.New(path, discardLogger()).Load()
	// São José stays at its manual 5 even though the sheet only shows 2;
	// Santa Cruz rises to the sheet's 4.
	assert.Equal(t, tally.CountMap{
		"Paróquia São José":        5,
		"Paróquia Santa Cruz":      4,
		"Comunidade Nossa Senhora": 1,
	}, got)

	assert.Equal(t, 10, result.Stats.Total)
	assert.Equal(t, 3, result.Stats.Active)
	assert.InDelta(t, 10.0/3.0, result.Stats.Mean, 0.001)
}

func TestUpdater_Run_FetchFailureKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	seed := store.New(path, discardLogger())
	require.NoError(t, seed.Save(tally.CountMap{"Paróquia São José": 5}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	fetcher := &fakeFetcher{err: errors.New("connection refused")}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SkipFetchFailed, result.Skip)
	assert.False(t, result.Persisted)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdater_Run_NoCategoryColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	fetcher := &fakeFetcher{table: &sheets.Table{
		Header: []string{"Data", "Nome"},
		Rows:   [][]string{{"20/08/2026", "Alguém"}},
	}}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SkipNoColumn, result.Skip)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpdater_Run_EmptySheetKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	seed := store.New(path, discardLogger())
	require.NoError(t, seed.Save(tally.CountMap{"Paróquia São José": 5}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Header detected but every cell is blank or echoes the header.
	fetcher := &fakeFetcher{table: signupTable("", "  ", "Qual sua paróquia?")}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SkipNoData, result.Skip)
	assert.Equal(t, 3, result.Rows)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdater_Run_FirstRunCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	fetcher := &fakeFetcher{table: signupTable(
		"Paróquia Santa Cruz",
		"Paróquia São José",
		"Paróquia Santa Cruz",
	)}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Persisted)
	assert.Equal(t, []string{"Paróquia Santa Cruz", "Paróquia São José"}, result.New)

	got := store.New(path, discardLogger()).Load()
	assert.Equal(t, tally.CountMap{
		"Paróquia Santa Cruz": 2,
		"Paróquia São José":   1,
	}, got)
}

func TestUpdater_Run_PersistFailureReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dados.json")
	fetcher := &fakeFetcher{table: signupTable("Paróquia São José")}

	result, err := newTestUpdater(fetcher, path).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist tally")
	assert.False(t, result.Persisted)
}

func TestUpdater_Run_CustomDetector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	fetcher := &fakeFetcher{table: &sheets.Table{
		Header: []string{"When", "Team"},
		Rows:   [][]string{{"x", "Blue"}, {"y", "Blue"}},
	}}

	st := store.New(path, discardLogger())
	u := New(fetcher, st, Options{
		SheetID:  "sheet-test",
		GID:      "0",
		Detector: tabulate.NewKeywordDetector("team"),
	}, discardLogger())

	result, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.Equal(t, tally.CountMap{"Blue": 2}, st.Load())
}

func TestNewRunID(t *testing.T) {
	a := newRunID()
	b := newRunID()

	assert.True(t, strings.HasPrefix(a, "run-"))
	assert.True(t, len(a) > len("run-"))
	assert.NotEqual(t, a, b)
}
