package lending

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/baldhumanity/neat-lending/history"
)

// InitialChampionFitness is the fitness any scored genome has to beat to
// become the first champion.
const InitialChampionFitness = -50000.0

// Genome is a candidate borrowed from the population.
type Genome interface {
	Phenotyper
	ID() int
	SetFitness(fitness float64)
	// Snapshot returns an owned copy that later epochs cannot touch.
	Snapshot() Genome
	Save(path string) error
}

// Population is the evolving set of genomes.
type Population interface {
	// Genomes lists the current generation. Setting fitness on the
	// elements must not invalidate the slice.
	Genomes() []Genome
	Epoch() error
	SpeciesCount() int
}

// Collaborator creates the initial population for a feature arity.
type Collaborator interface {
	NewPopulation(arity int) (Population, error)
}

// Sink persists the artifacts of a finished run.
type Sink interface {
	Persist(champion Champion, sample []Instance) error
}

// Champion is the best genome seen since the run started.
type Champion struct {
	Fitness    float64
	Genome     Genome
	Winners    []Instance
	Losers     []Instance
	Generation int
}

// Config tunes an Evolver.
type Config struct {
	Generations int
	// Workers bounds concurrent genome scoring. Values below 2 score
	// sequentially.
	Workers int
	RunID   string
}

// Outcome is what a finished run reports.
type Outcome struct {
	Champion Champion
	Test     Result
}

type evolverState int

const (
	stateInit evolverState = iota
	stateEvolving
	stateFinalized
)

// Evolver drives the collaborator through a fixed number of generations and
// validates the champion on the held-out partition. An Evolver runs once.
type Evolver struct {
	cfg      Config
	collab   Collaborator
	sink     Sink
	logger   *zap.Logger
	store    history.Store
	state    evolverState
	champion Champion
}

// NewEvolver wires an evolver. store may be nil.
func NewEvolver(cfg Config, collab Collaborator, sink Sink, logger *zap.Logger, store history.Store) *Evolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evolver{
		cfg:      cfg,
		collab:   collab,
		sink:     sink,
		logger:   logger,
		store:    store,
		champion: Champion{Fitness: InitialChampionFitness, Generation: -1},
	}
}

// Champion returns the current champion.
func (e *Evolver) Champion() Champion {
	return e.champion
}

// Run evolves on part.Training, then scores the champion on part.Test and
// hands the artifacts to the sink. Any failure ends the run; it cannot be
// restarted.
func (e *Evolver) Run(ctx context.Context, part Partition) (Outcome, error) {
	if e.state != stateInit {
		return Outcome{}, ErrAlreadyRun
	}
	if e.cfg.Generations < 0 {
		return Outcome{}, errors.Wrapf(ErrConfig, "negative generation count %d", e.cfg.Generations)
	}
	if len(part.Training) == 0 {
		return Outcome{}, errors.Wrap(ErrConfig, "training set is empty")
	}
	e.state = stateEvolving
	started := time.Now()

	pop, err := e.collab.NewPopulation(len(part.Training[0].Features))
	if err != nil {
		return Outcome{}, errors.Wrapf(ErrCollaborator, "create population: %v", err)
	}

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if err := e.runGeneration(ctx, pop, gen, part.Training); err != nil {
			return Outcome{}, err
		}
		e.logger.Info("Done with generation: " + strconv.Itoa(gen))
	}

	return e.finalize(ctx, part, started)
}

func (e *Evolver) runGeneration(ctx context.Context, pop Population, gen int, training []Instance) error {
	start := time.Now()
	genomes := pop.Genomes()
	results, err := e.score(ctx, genomes, training)
	if err != nil {
		return errors.WithMessagef(err, "generation %d", gen)
	}

	// Reduce in genome order so the champion does not depend on scheduling.
	best := math.Inf(-1)
	for i, g := range genomes {
		res := results[i]
		g.SetFitness(res.Fitness)
		best = math.Max(best, res.Fitness)
		if res.Fitness > e.champion.Fitness {
			e.logger.Debug("Found new champion with fitness " + strconv.FormatFloat(res.Fitness, 'f', -1, 64) +
				" that picked " + strconv.Itoa(len(res.Winners)) + " winners and " +
				strconv.Itoa(len(res.Losers)) + " losers.")
			e.champion = Champion{
				Fitness:    res.Fitness,
				Genome:     g.Snapshot(),
				Winners:    res.Winners,
				Losers:     res.Losers,
				Generation: gen,
			}
		}
	}

	if e.store != nil {
		err := e.store.SaveGeneration(ctx, history.Generation{
			RunID:           e.cfg.RunID,
			Index:           gen,
			Genomes:         len(genomes),
			BestFitness:     best,
			ChampionFitness: e.champion.Fitness,
			Species:         pop.SpeciesCount(),
			Elapsed:         time.Since(start),
		})
		if err != nil {
			return errors.Wrapf(ErrIO, "record generation %d: %v", gen, err)
		}
	}

	if err := pop.Epoch(); err != nil {
		return errors.Wrapf(ErrCollaborator, "epoch %d: %v", gen, err)
	}
	return nil
}

// score evaluates every genome on training. Results line up with genomes.
func (e *Evolver) score(ctx context.Context, genomes []Genome, training []Instance) ([]Result, error) {
	results := make([]Result, len(genomes))
	if e.cfg.Workers < 2 {
		for i, g := range genomes {
			res, err := Evaluate(g, training)
			if err != nil {
				return nil, errors.WithMessagef(err, "genome %d", g.ID())
			}
			results[i] = res
		}
		return results, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Workers)
	for i, g := range genomes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Evaluate(g, training)
			if err != nil {
				return errors.WithMessagef(err, "genome %d", g.ID())
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Evolver) finalize(ctx context.Context, part Partition, started time.Time) (Outcome, error) {
	if e.champion.Genome == nil {
		return Outcome{}, errors.Wrapf(ErrConfig, "no champion: no generation was run or no genome beat %g", InitialChampionFitness)
	}

	test, err := Evaluate(e.champion.Genome, part.Test)
	if err != nil {
		return Outcome{}, errors.WithMessage(err, "evaluate champion on test data")
	}
	e.logger.Debug("Champion performance on test data: " + strconv.FormatFloat(test.Fitness, 'f', -1, 64) +
		" fitness picked " + strconv.Itoa(len(test.Winners)) + " winners and " +
		strconv.Itoa(len(test.Losers)) + " losers.")

	if e.store != nil {
		err := e.store.SaveRun(ctx, history.Run{
			ID:              e.cfg.RunID,
			StartedAt:       started,
			CompletedAt:     time.Now(),
			Generations:     e.cfg.Generations,
			TrainingSize:    len(part.Training),
			TestSize:        len(part.Test),
			ChampionFitness: e.champion.Fitness,
			TestFitness:     test.Fitness,
			TestWinners:     len(test.Winners),
			TestLosers:      len(test.Losers),
		})
		if err != nil {
			return Outcome{}, errors.Wrapf(ErrIO, "record run %s: %v", e.cfg.RunID, err)
		}
	}

	// Artifacts go last; earlier failures leave no files.
	if e.sink != nil {
		if err := e.sink.Persist(e.champion, part.Training); err != nil {
			return Outcome{}, err
		}
	}

	e.state = stateFinalized
	e.logger.Info("run finished",
		zap.String("run", e.cfg.RunID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Float64("champion_fitness", e.champion.Fitness),
		zap.Int("champion_generation", e.champion.Generation))
	return Outcome{Champion: e.champion, Test: test}, nil
}
