package store

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-moteval/metrics"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestInsertGet(t *testing.T) {

	s := openTestStore(t)

	run := &Run{
		Label:       "bytetrack",
		GroundTruth: "gt.json",
		Predictions: "result.json",
		MOTA:        0.3636,
		IDF1:        0.6364,
		IDPrecision: 0.6364,
		IDRecall:    0.6364,
		TP:          7,
		FP:          3,
		FN:          4,
		IDMatches:   7,
		Options:     json.RawMessage(`{"threshold":0.3}`),
	}

	require.NoError(t, s.Insert(run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestNaNMetricsRoundTrip(t *testing.T) {

	s := openTestStore(t)

	run := &Run{
		RunID:       "undefined",
		GroundTruth: "empty.json",
		Predictions: "empty.json",
		MOTA:        math.NaN(),
		IDF1:        math.NaN(),
		IDPrecision: math.NaN(),
		IDRecall:    0,
	}

	require.NoError(t, s.Insert(run))

	got, err := s.Get("undefined")
	require.NoError(t, err)

	assert.True(t, math.IsNaN(got.MOTA))
	assert.True(t, math.IsNaN(got.IDF1))
	assert.True(t, math.IsNaN(got.IDPrecision))
	assert.Equal(t, 0.0, got.IDRecall)
	assert.Nil(t, got.Options)
}

func TestList(t *testing.T) {

	s := openTestStore(t)

	for i, label := range []string{"a", "b", "a"} {
		require.NoError(t, s.Insert(&Run{
			RunID:       label + string(rune('0'+i)),
			Label:       label,
			GroundTruth: "gt.json",
			Predictions: "pred.json",
			CreatedAt:   int64(100 + i),
		}))
	}

	runs, err := s.List("a")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// newest first
	assert.Equal(t, "a2", runs[0].RunID)
	assert.Equal(t, "a0", runs[1].RunID)

	runs, err = s.List("")
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.List("missing")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDelete(t *testing.T) {

	s := openTestStore(t)

	run := &Run{GroundTruth: "gt.json", Predictions: "pred.json"}
	require.NoError(t, s.Insert(run))

	require.NoError(t, s.Delete(run.RunID))

	_, err := s.Get(run.RunID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Delete(run.RunID), ErrNotFound)
}

func TestReopenKeepsRuns(t *testing.T) {

	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(&Run{RunID: "kept", GroundTruth: "gt", Predictions: "pred"}))
	require.NoError(t, s.Close())

	// migrations already applied
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, "gt", got.GroundTruth)
}

func TestNewRun(t *testing.T) {

	res := &metrics.Result{
		MOTA:        0.5,
		IDF1:        math.NaN(),
		IDPrecision: math.NaN(),
		IDRecall:    0.25,
		Counts:      metrics.Counts{TP: 3, FP: 1, FN: 2, IDMatches: 3},
	}

	run, err := NewRun("nightly", "gt.json", "pred.json", res, map[string]float64{"threshold": 0.3})
	require.NoError(t, err)

	assert.Equal(t, "nightly", run.Label)
	assert.Equal(t, 3, run.TP)
	assert.Equal(t, 2, run.FN)
	assert.JSONEq(t, `{"threshold":0.3}`, string(run.Options))

	s := openTestStore(t)
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.IDF1))
	assert.Equal(t, 0.25, got.IDRecall)
}
