// Package history records the outcome of evolution runs: one row per run and
// one row per generation.
package history

import (
	"context"
	"time"
)

// Run summarises a finished evolution run.
type Run struct {
	ID              string
	StartedAt       time.Time
	CompletedAt     time.Time
	Generations     int
	TrainingSize    int
	TestSize        int
	ChampionFitness float64
	TestFitness     float64
	TestWinners     int
	TestLosers      int
}

// Generation captures the state of a run after one generation was scored.
type Generation struct {
	RunID           string
	Index           int
	Genomes         int
	BestFitness     float64 // Best fitness within this generation.
	ChampionFitness float64 // All-time best up to and including this generation.
	Species         int
	Elapsed         time.Duration
}

// Store persists run and generation records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	SaveGeneration(ctx context.Context, gen Generation) error
	Generations(ctx context.Context, runID string) ([]Generation, error)
	Close() error
}
