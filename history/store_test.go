package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlitePath := filepath.Join(t.TempDir(), "history.db")
	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendSQLite: NewSQLiteStore(sqlitePath),
	}
}

func TestStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			started := time.Unix(1700000000, 123456000)
			run := Run{
				ID:              "run-1",
				StartedAt:       started,
				CompletedAt:     started.Add(90 * time.Second),
				Generations:     3,
				TrainingSize:    70,
				TestSize:        30,
				ChampionFitness: 1.25,
				TestFitness:     -2.5,
				TestWinners:     4,
				TestLosers:      6,
			}
			require.NoError(t, store.SaveRun(ctx, run))

			got, ok, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, run.ID, got.ID)
			assert.True(t, run.StartedAt.Equal(got.StartedAt))
			assert.True(t, run.CompletedAt.Equal(got.CompletedAt))
			assert.Equal(t, run.Generations, got.Generations)
			assert.Equal(t, run.TrainingSize, got.TrainingSize)
			assert.Equal(t, run.TestSize, got.TestSize)
			assert.Equal(t, run.ChampionFitness, got.ChampionFitness)
			assert.Equal(t, run.TestFitness, got.TestFitness)
			assert.Equal(t, run.TestWinners, got.TestWinners)
			assert.Equal(t, run.TestLosers, got.TestLosers)

			run.TestWinners = 5
			require.NoError(t, store.SaveRun(ctx, run))
			got, _, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, got.TestWinners)

			_, ok, err = store.GetRun(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreGenerationsOrdered(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			for _, idx := range []int{2, 0, 1} {
				require.NoError(t, store.SaveGeneration(ctx, Generation{
					RunID:           "run-1",
					Index:           idx,
					Genomes:         150,
					BestFitness:     float64(idx),
					ChampionFitness: float64(idx) + 0.5,
					Species:         idx + 1,
					Elapsed:         time.Duration(idx) * time.Millisecond,
				}))
			}
			require.NoError(t, store.SaveGeneration(ctx, Generation{RunID: "run-2", Index: 0}))

			gens, err := store.Generations(ctx, "run-1")
			require.NoError(t, err)
			require.Len(t, gens, 3)
			for i, gen := range gens {
				assert.Equal(t, "run-1", gen.RunID)
				assert.Equal(t, i, gen.Index)
				assert.Equal(t, float64(i), gen.BestFitness)
				assert.Equal(t, float64(i)+0.5, gen.ChampionFitness)
				assert.Equal(t, i+1, gen.Species)
				assert.Equal(t, time.Duration(i)*time.Millisecond, gen.Elapsed)
			}

			gens, err = store.Generations(ctx, "unknown")
			require.NoError(t, err)
			assert.Empty(t, gens)
		})
	}
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.SaveRun(ctx, Run{ID: "x"}))
			_, err := store.Generations(ctx, "x")
			assert.Error(t, err)
		})
	}
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(BackendSQLite, filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	_, err = NewStore("postgres", "")
	assert.Error(t, err)

	err = NewSQLiteStore("").Init(context.Background())
	assert.Error(t, err)
}
