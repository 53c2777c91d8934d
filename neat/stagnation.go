package neat

import (
	"fmt"
	"math"
	"sort"
)

// Stagnation detects species that stopped improving.
type Stagnation struct {
	maxStagnation  int
	speciesElitism int
	fitnessFunc    func([]float64) float64
}

// NewStagnation creates a stagnation tracker from the parameters.
func NewStagnation(params *Parameters) (*Stagnation, error) {
	fn, ok := StatFunctions[params.SpeciesFitnessFunc]
	if !ok {
		return nil, fmt.Errorf("invalid SpeciesFitnessFunc: %s", params.SpeciesFitnessFunc)
	}
	return &Stagnation{
		maxStagnation:  params.MaxStagnation,
		speciesElitism: params.SpeciesElitism,
		fitnessFunc:    fn,
	}, nil
}

// StagnationInfo is the verdict for one species.
type StagnationInfo struct {
	Species    *Species
	IsStagnant bool
}

// Update refreshes each species' fitness and history and returns the species
// ordered from least to most fit. A species is stagnant once it has gone
// maxStagnation generations without improving, unless it is among the
// speciesElitism fittest species or removing it would leave fewer than that
// many.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	ordered := make([]*Species, 0, len(speciesSet.Species))
	for _, sid := range speciesSet.sortedSpeciesKeys() {
		sp := speciesSet.Species[sid]
		previousBest := MaxFloat(sp.FitnessHistory)

		fitnesses := sp.Fitnesses()
		if len(fitnesses) == 0 {
			sp.Fitness = math.Inf(-1)
		} else {
			sp.Fitness = s.fitnessFunc(fitnesses)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > previousBest {
			sp.LastImproved = generation
		}
		ordered = append(ordered, sp)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Fitness < ordered[j].Fitness })

	result := make([]StagnationInfo, len(ordered))
	nonStagnant := len(ordered)
	for i, sp := range ordered {
		stagnant := generation-sp.LastImproved >= s.maxStagnation
		elite := len(ordered)-i <= s.speciesElitism
		if stagnant && !elite && nonStagnant > s.speciesElitism {
			nonStagnant--
		} else {
			stagnant = false
		}
		result[i] = StagnationInfo{Species: sp, IsStagnant: stagnant}
	}
	return result
}
