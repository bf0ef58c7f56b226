package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chembfn/internal/pipeline"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created := time.UnixMilli(time.Now().UnixMilli())
	in := &Entry{
		ID:        "run-1",
		CreatedAt: created,
		Model:     "qm9",
		Vocab:     "moses",
		Method:    "ODE",
		BatchSize: 2,
		Prompt:    "<logp:0.5>:[1.5]",
		Transform: "strip_stereo",
		Device:    "cuda",
		Elapsed:   1500 * time.Millisecond,
		Molecules: []string{"CCO", "c1ccccc1"},
		Chemfig:   []string{"a", "b"},
	}
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, in.Model, got.Model)
	assert.Equal(t, in.Vocab, got.Vocab)
	assert.Equal(t, in.Method, got.Method)
	assert.Equal(t, in.BatchSize, got.BatchSize)
	assert.Equal(t, in.Prompt, got.Prompt)
	assert.Equal(t, in.Elapsed, got.Elapsed)
	assert.Equal(t, in.Molecules, got.Molecules)
	assert.Equal(t, in.Chemfig, got.Chemfig)
}

func TestGetUnknown(t *testing.T) {
	_, err := openStore(t).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveRequiresID(t *testing.T) {
	assert.Error(t, openStore(t).Save(context.Background(), &Entry{}))
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, &Entry{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Model:     "m",
			Method:    "BFN",
			BatchSize: 1,
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)
	assert.Empty(t, all[0].Molecules)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	require.NoError(t, s.Delete(ctx, "c"))
	require.NoError(t, s.Delete(ctx, "c"))
	all, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFromResult(t *testing.T) {
	res := &pipeline.Result{
		ID:        "x",
		Job:       pipeline.Job{Model: "base.pt", Method: "BFN", BatchSize: 4, Prompt: "[1]"},
		Molecules: []string{"C"},
		Transform: "identity",
	}
	e := FromResult(res)
	assert.Equal(t, "x", e.ID)
	assert.Equal(t, "base.pt", e.Model)
	assert.Equal(t, 4, e.BatchSize)
	assert.Equal(t, "[1]", e.Prompt)
	assert.Equal(t, []string{"C"}, e.Molecules)
}
