// Command lcneat evolves NEAT networks that pick profitable loans from
// Lending Club history exports.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/baldhumanity/neat-lending/history"
	"github.com/baldhumanity/neat-lending/lending"
	"github.com/baldhumanity/neat-lending/neat"
)

type args struct {
	Input       string   `arg:"-i,--input,required" help:"directory holding the historical CSV files"`
	Output      string   `arg:"-o,--output,required" help:"directory receiving logs and artifacts"`
	Generations int      `arg:"-g,--generations" help:"number of generations"`
	Training    int      `arg:"-t,--training" help:"percent of the data used for training, the rest tests the champion"`
	Parameter   []string `arg:"-p,--parameter,separate" help:"NEAT parameter override as key=value, repeatable"`
	Config      string   `arg:"-c,--config" help:"INI file with a [NEAT] parameter section"`
	Seed        int64    `arg:"--seed" help:"random seed, 0 seeds from the clock"`
	Workers     int      `arg:"--workers" help:"genomes scored concurrently"`
	History     string   `arg:"--history" help:"run history backend: memory or sqlite"`
	HistoryDB   string   `arg:"--history-db" help:"SQLite history file, defaults to history.db in the output directory"`
}

func (args) Description() string {
	return "Evolves neural networks with NEAT to select loans from Lending Club historical data."
}

func main() {
	a := args{
		Generations: 100,
		Training:    70,
		Workers:     1,
		History:     history.BackendMemory,
	}
	arg.MustParse(&a)

	if err := run(a); err != nil {
		fmt.Fprintln(os.Stderr, "lcneat:", err)
		os.Exit(1)
	}
}

func run(a args) error {
	if a.Training < 0 || a.Training > 100 {
		return errors.Wrapf(lending.ErrConfig, "training percent %d is outside 0-100", a.Training)
	}

	outDir, err := resolveDir(a.Output)
	if err != nil {
		return err
	}
	inDir, err := resolveDir(a.Input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return errors.Wrapf(lending.ErrIO, "create %s: %v", outDir, err)
	}

	ts := lending.Timestamp(time.Now())
	logger, closeLog, err := newLogger(lending.OutputFilename(outDir, lending.PrefixLog, ts, "log"))
	if err != nil {
		return err
	}
	defer closeLog()

	if err := evolve(a, inDir, outDir, ts, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}

func evolve(a args, inDir, outDir, ts string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := neat.DefaultParameters()
	if a.Config != "" {
		loaded, err := neat.LoadParameters(a.Config)
		if err != nil {
			return errors.Wrapf(lending.ErrConfig, "%v", err)
		}
		params = loaded
	}
	if err := params.ApplyOverrides(a.Parameter); err != nil {
		return errors.Wrapf(lending.ErrConfig, "%v", err)
	}

	seed := a.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	runID := uuid.NewString()
	logger.Info("starting run", zap.String("run", runID), zap.Int64("seed", seed), zap.String("timestamp", ts))

	dbPath := a.HistoryDB
	if dbPath == "" {
		dbPath = filepath.Join(outDir, "history.db")
	}
	store, err := history.NewStore(a.History, dbPath)
	if err != nil {
		return errors.Wrapf(lending.ErrConfig, "%v", err)
	}
	if err := store.Init(ctx); err != nil {
		return errors.Wrapf(lending.ErrIO, "init history: %v", err)
	}
	defer store.Close()

	instances, err := lending.NewIngestor(logger).Ingest(inDir)
	if err != nil {
		return err
	}
	part, err := lending.Split(instances, float64(a.Training)/100.0, rng)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Winners: %d out of %d", lending.WinnerCount(part.Training), len(part.Training)))

	evolver := lending.NewEvolver(
		lending.Config{Generations: a.Generations, Workers: a.Workers, RunID: runID},
		lending.NewNEAT(params, rng, logger),
		lending.ArtifactDir{Dir: outDir, Timestamp: ts, Params: params},
		logger,
		store,
	)
	outcome, err := evolver.Run(ctx, part)
	if err != nil {
		return err
	}
	logger.Info("champion saved",
		zap.String("genome", lending.OutputFilename(outDir, lending.PrefixGenome, ts, "ge")),
		zap.Float64("training_fitness", outcome.Champion.Fitness),
		zap.Float64("test_fitness", outcome.Test.Fitness))
	return nil
}

// newLogger logs DEBUG and above to the console and to path.
func newLogger(path string) (*zap.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(lending.ErrIO, "open log %s: %v", path, err)
	}

	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	config.EncodeLevel = zapcore.CapitalLevelEncoder
	config.CallerKey = ""
	encoder := zapcore.NewConsoleEncoder(config)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.DebugLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(f), zapcore.DebugLevel),
	)
	logger := zap.New(core)
	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}

func resolveDir(dir string) (string, error) {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrapf(lending.ErrIO, "resolve %s: %v", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(lending.ErrIO, "resolve %s: %v", dir, err)
	}
	return abs, nil
}
