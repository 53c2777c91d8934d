package lending

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

func loan(rate float64, status LoanStatus, inq int) Instance {
	return Instance{
		Attributes: map[string]any{
			ColumnIntRate:    rate,
			ColumnLoanStatus: string(status),
			ColumnInquiries:  inq,
		},
		Features: []float64{rate, float64(inq)},
	}
}

// funcNetwork answers every input with fn.
type funcNetwork struct {
	fn      func(features []float64) float64
	staged  []float64
	outputs []float64
}

func (n *funcNetwork) Input(features []float64) error {
	n.staged = features
	return nil
}

func (n *funcNetwork) Activate() error {
	n.outputs = []float64{n.fn(n.staged)}
	return nil
}

func (n *funcNetwork) Output() []float64 { return n.outputs }

// silentNetwork has no output nodes.
type silentNetwork struct{}

func (silentNetwork) Input([]float64) error { return nil }
func (silentNetwork) Activate() error       { return nil }
func (silentNetwork) Output() []float64     { return nil }

// stubGenome is a genome whose network ignores the features.
type stubGenome struct {
	id       int
	fn       func(features []float64) float64
	mu       *sync.Mutex
	fitness  *float64
	builds   *int
	buildErr error
}

func constGenome(id int, out float64) *stubGenome {
	return &stubGenome{
		id:      id,
		fn:      func([]float64) float64 { return out },
		mu:      &sync.Mutex{},
		fitness: new(float64),
		builds:  new(int),
	}
}

func (g *stubGenome) BuildPhenotype() (Network, error) {
	g.mu.Lock()
	*g.builds++
	g.mu.Unlock()
	if g.buildErr != nil {
		return nil, g.buildErr
	}
	return &funcNetwork{fn: g.fn}, nil
}

func (g *stubGenome) ID() int { return g.id }

func (g *stubGenome) SetFitness(f float64) { *g.fitness = f }

func (g *stubGenome) Snapshot() Genome {
	fitness := *g.fitness
	builds := 0
	return &stubGenome{id: g.id, fn: g.fn, mu: &sync.Mutex{}, fitness: &fitness, builds: &builds, buildErr: g.buildErr}
}

func (g *stubGenome) Save(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("genome %d\n", g.id)), 0o644)
}

// stubPopulation replays a fixed list of genomes every generation.
type stubPopulation struct {
	genomes  []Genome
	epochs   int
	epochErr error
}

func (p *stubPopulation) Genomes() []Genome { return p.genomes }

func (p *stubPopulation) Epoch() error {
	if p.epochErr != nil {
		return p.epochErr
	}
	p.epochs++
	return nil
}

func (p *stubPopulation) SpeciesCount() int { return 1 }

type stubCollaborator struct {
	pop   *stubPopulation
	arity int
	err   error
}

func (c *stubCollaborator) NewPopulation(arity int) (Population, error) {
	c.arity = arity
	if c.err != nil {
		return nil, c.err
	}
	return c.pop, nil
}

// recordingSink remembers what it was asked to persist.
type recordingSink struct {
	calls    int
	champion Champion
	sample   []Instance
	err      error
}

func (s *recordingSink) Persist(champion Champion, sample []Instance) error {
	s.calls++
	s.champion = champion
	s.sample = sample
	return s.err
}

var errStub = errors.New("stub failure")
