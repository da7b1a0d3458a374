package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcorbett503/HoopRank/internal/dedup"
	"github.com/bcorbett503/HoopRank/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var testInput = model.RunInput{
	OutdoorPath: "courts.json",
	IndoorPath:  "indoor_gyms_data.dart",
	Policy:      "first",
}

// --- Runs ---

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, testInput, got.Input)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Nil(t, got.Summary)
	assert.Empty(t, got.Error)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput)
	require.NoError(t, err)

	summary := model.RunSummary{OutdoorIn: 10, IndoorIn: 5, OutdoorOut: 7, IndoorOut: 4, Rejected: 1, DurationMS: 42}
	require.NoError(t, st.CompleteRun(ctx, run.ID, summary))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, summary, *got.Summary)
	assert.Equal(t, 4, got.Summary.Removed())
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput)
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, run.ID, errors.New("geo: invalid coordinate")))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "geo: invalid coordinate", got.Error)
}

func TestSQLite_RunNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.CompleteRun(ctx, "missing", model.RunSummary{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.FailRun(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, testInput)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	require.NoError(t, st.CompleteRun(ctx, ids[0], model.RunSummary{}))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, ids[2], all[0].ID)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, ids[0], complete[0].ID)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)
}

// --- Passes ---

func TestSQLite_RecordAndListPasses(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testInput)
	require.NoError(t, err)

	first := &model.PassRecord{
		RunID:   run.ID,
		Pass:    dedup.PassOutdoorSameName,
		Removed: 1,
		Matches: []dedup.Match{{
			Removed: 1, Kept: 0,
			RemovedID: "court_2", KeptID: "court_1",
			RemovedName: "Lincoln Park Court", KeptName: "Lincoln Park Courts",
			Distance: 50.2, Similarity: 1,
		}},
		DurationMS: 3,
	}
	require.NoError(t, st.RecordPass(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &model.PassRecord{RunID: run.ID, Pass: dedup.PassPriority, Skipped: 2}
	require.NoError(t, st.RecordPass(ctx, second))

	passes, err := st.ListPasses(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, passes, 2)

	assert.Equal(t, dedup.PassOutdoorSameName, passes[0].Pass)
	assert.Equal(t, 1, passes[0].Removed)
	assert.Equal(t, first.Matches, passes[0].Matches)
	assert.Equal(t, int64(3), passes[0].DurationMS)

	assert.Equal(t, dedup.PassPriority, passes[1].Pass)
	assert.Equal(t, 2, passes[1].Skipped)
	assert.Empty(t, passes[1].Matches)
}

func TestSQLite_RecordPassUnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.RecordPass(context.Background(), &model.PassRecord{RunID: "missing", Pass: dedup.PassPriority})
	assert.Error(t, err)
}

func TestSQLite_ListPassesEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	passes, err := st.ListPasses(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, passes)
}

// --- Geocode cache ---

func TestSQLite_CachedName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, ok, err := st.GetCachedName(ctx, "37.775,-122.419")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetCachedName(ctx, "37.775,-122.419", "Civic Center Playground"))
	name, ok, err := st.GetCachedName(ctx, "37.775,-122.419")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Civic Center Playground", name)

	require.NoError(t, st.SetCachedName(ctx, "37.775,-122.419", "Civic Center Hoops"))
	name, _, err = st.GetCachedName(ctx, "37.775,-122.419")
	require.NoError(t, err)
	assert.Equal(t, "Civic Center Hoops", name)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}
