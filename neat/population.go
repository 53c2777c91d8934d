package neat

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// ErrExtinct is returned by Epoch when every species died out and
// ResetOnExtinction is off.
var ErrExtinct = errors.New("population extinct")

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	params       *Parameters
	seed         *Genome
	members      map[int]*Genome
	speciesSet   *SpeciesSet
	reproduction *Reproduction
	innovations  *Innovations
	rng          *rand.Rand
	logger       *zap.Logger
	generation   int
}

// NewPopulation grows a population of PopulationSize clones of seed.
// compatibilityThreshold overrides the CompatibilityThreshold parameter for
// this population. rng drives every random decision, so a seeded generator
// makes runs reproducible.
func NewPopulation(seed *Genome, params *Parameters, randomize bool, compatibilityThreshold float64, rng *rand.Rand) (*Population, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if compatibilityThreshold < 0 {
		return nil, fmt.Errorf("%w: negative compatibility threshold %g", ErrInvalidParameter, compatibilityThreshold)
	}
	stagnation, err := NewStagnation(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}

	logger := zap.NewNop()
	innovations := NewInnovations(seed.maxNodeKey() + 1)
	reproduction := NewReproduction(params, stagnation, innovations, seed.Key+1, rng, logger)

	p := &Population{
		params:       params,
		seed:         seed.Clone(),
		speciesSet:   NewSpeciesSet(compatibilityThreshold, logger),
		reproduction: reproduction,
		innovations:  innovations,
		rng:          rng,
		logger:       logger,
	}
	p.members = reproduction.CreateNewPopulation(p.seed, params.PopulationSize, randomize)
	return p, nil
}

// SetLogger routes speciation and reproduction diagnostics to logger.
func (p *Population) SetLogger(logger *zap.Logger) {
	p.logger = logger
	p.speciesSet.logger = logger
	p.reproduction.logger = logger
}

// Genomes returns the current generation ordered by key. The slice is a
// snapshot: setting fitness on its elements is safe, and it stays valid
// until the next Epoch.
func (p *Population) Genomes() []*Genome {
	return sortedGenomes(p.members)
}

// Generation is the number of completed epochs.
func (p *Population) Generation() int {
	return p.generation
}

// SpeciesCount is the number of species found by the latest Epoch.
func (p *Population) SpeciesCount() int {
	return len(p.speciesSet.Species)
}

// Epoch advances one generation in place: speciate the scored population,
// drop stagnant species and breed replacements. Fitness must already be set
// on every genome.
func (p *Population) Epoch() error {
	start := time.Now()
	if len(p.members) == 0 {
		return p.handleExtinction()
	}

	p.speciesSet.Speciate(p.params, p.members, p.generation)
	next := p.reproduction.Reproduce(p.speciesSet, p.params.PopulationSize, p.generation)
	p.generation++
	p.innovations.nextGeneration()

	if len(next) == 0 {
		return p.handleExtinction()
	}
	p.members = next

	p.logger.Debug("epoch finished",
		zap.Int("generation", p.generation),
		zap.Int("genomes", len(p.members)),
		zap.Int("species", len(p.speciesSet.Species)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *Population) handleExtinction() error {
	if !p.params.ResetOnExtinction {
		return fmt.Errorf("%w in generation %d", ErrExtinct, p.generation)
	}
	p.logger.Info("population extinct, resetting from seed", zap.Int("generation", p.generation))
	p.members = p.reproduction.CreateNewPopulation(p.seed, p.params.PopulationSize, true)
	p.speciesSet = NewSpeciesSet(p.speciesSet.Threshold, p.logger)
	return nil
}
