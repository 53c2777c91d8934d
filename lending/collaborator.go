package lending

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/baldhumanity/neat-lending/neat"
	"github.com/baldhumanity/neat-lending/neat/nn"
)

// SpeciationThreshold is the compatibility threshold of the population.
const SpeciationThreshold = 1.0

// NEAT adapts the neat package to the Collaborator interface. The seed
// genome has one input per feature, a single unsigned-sigmoid output, no
// hidden nodes and biases on.
type NEAT struct {
	params *neat.Parameters
	rng    *rand.Rand
	logger *zap.Logger
}

// NewNEAT returns a collaborator drawing randomness from rng.
func NewNEAT(params *neat.Parameters, rng *rand.Rand, logger *zap.Logger) *NEAT {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NEAT{params: params, rng: rng, logger: logger}
}

func (n *NEAT) NewPopulation(arity int) (Population, error) {
	seed, err := neat.NewGenome(0, arity, 0, 1, true,
		neat.UnsignedSigmoid, neat.UnsignedSigmoid, neat.SeedPerceptron, n.params, n.rng)
	if err != nil {
		return nil, err
	}
	pop, err := neat.NewPopulation(seed, n.params, true, SpeciationThreshold, n.rng)
	if err != nil {
		return nil, err
	}
	pop.SetLogger(n.logger.Named("neat"))
	return neatPopulation{pop}, nil
}

type neatPopulation struct {
	pop *neat.Population
}

func (p neatPopulation) Genomes() []Genome {
	members := p.pop.Genomes()
	out := make([]Genome, len(members))
	for i, g := range members {
		out[i] = NEATGenome{g}
	}
	return out
}

func (p neatPopulation) Epoch() error { return p.pop.Epoch() }

func (p neatPopulation) SpeciesCount() int { return p.pop.SpeciesCount() }

// NEATGenome exposes a *neat.Genome to the evolver.
type NEATGenome struct {
	*neat.Genome
}

func (g NEATGenome) ID() int { return g.Key }

func (g NEATGenome) BuildPhenotype() (Network, error) {
	return nn.New(g.Genome)
}

func (g NEATGenome) Snapshot() Genome {
	return NEATGenome{g.Clone()}
}
