package neat

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// Reproduction breeds the next generation from the current species.
type Reproduction struct {
	params        *Parameters
	stagnation    *Stagnation
	innovations   *Innovations
	rng           *rand.Rand
	logger        *zap.Logger
	nextGenomeKey int
}

// NewReproduction creates a reproduction manager. Genome keys continue from
// firstGenomeKey.
func NewReproduction(params *Parameters, stagnation *Stagnation, innovations *Innovations, firstGenomeKey int, rng *rand.Rand, logger *zap.Logger) *Reproduction {
	return &Reproduction{
		params:        params,
		stagnation:    stagnation,
		innovations:   innovations,
		rng:           rng,
		logger:        logger,
		nextGenomeKey: firstGenomeKey,
	}
}

func (r *Reproduction) getNextKey() int {
	key := r.nextGenomeKey
	r.nextGenomeKey++
	return key
}

// CreateNewPopulation clones seed popSize times. With randomize set every
// clone draws fresh weights and biases.
func (r *Reproduction) CreateNewPopulation(seed *Genome, popSize int, randomize bool) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		g := seed.Clone()
		g.Key = r.getNextKey()
		g.Fitness = 0
		if randomize {
			g.Randomize(r.params, r.rng)
		}
		genomes[g.Key] = g
	}
	return genomes
}

// Reproduce drops stagnant species, shares fitness within the survivors and
// fills popSize slots with elites and offspring. An empty result means every
// species went extinct.
func (r *Reproduction) Reproduce(speciesSet *SpeciesSet, popSize, generation int) map[int]*Genome {
	var allFitnesses []float64
	var remaining []*Species
	for _, info := range r.stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			r.logger.Debug("species removed due to stagnation", zap.Int("species", info.Species.Key))
			continue
		}
		fitnesses := info.Species.Fitnesses()
		if len(fitnesses) == 0 {
			continue
		}
		allFitnesses = append(allFitnesses, fitnesses...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		return map[int]*Genome{}
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Key < remaining[j].Key })

	// Fitness sharing normalised over the surviving range.
	minFitness := MinFloat(allFitnesses)
	fitnessRange := math.Max(1.0, MaxFloat(allFitnesses)-minFitness)
	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	adjustedSum := 0.0
	for i, sp := range remaining {
		sp.AdjustedFitness = (Mean(sp.Fitnesses()) - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		adjustedSum += sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}

	minSize := max(r.params.MinSpeciesSize, r.params.Elitism)
	spawnAmounts := computeSpawnAmounts(adjusted, adjustedSum, previousSizes, popSize, minSize, r.rng)

	population := make(map[int]*Genome, popSize)
	for i, sp := range remaining {
		spawn := spawnAmounts[i]
		if spawn == 0 {
			r.logger.Debug("species crowded out", zap.Int("species", sp.Key))
			continue
		}

		members := sp.sortedMembers()
		sort.SliceStable(members, func(a, b int) bool { return members[a].Fitness > members[b].Fitness })

		for j := 0; j < r.params.Elitism && j < len(members) && spawn > 0; j++ {
			population[members[j].Key] = members[j]
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.params.SurvivalRate * float64(len(members))))
		cutoff = min(max(cutoff, 2), len(members))
		parents := members[:cutoff]

		for j := 0; j < spawn; j++ {
			parent1 := parents[r.rng.Intn(len(parents))]
			parent2 := parents[r.rng.Intn(len(parents))]

			var child *Genome
			if r.rng.Float64() < r.params.CrossoverRate {
				child = crossover(r.getNextKey(), parent1, parent2, r.rng)
			} else {
				child = parent1.Clone()
				child.Key = r.getNextKey()
			}
			child.Fitness = 0
			child.Mutate(r.params, r.innovations, r.rng)

			population[child.Key] = child
		}
	}

	if len(population) != popSize {
		r.logger.Debug("population size drifted from target",
			zap.Int("size", len(population)), zap.Int("target", popSize))
	}
	return population
}

// computeSpawnAmounts decides how many offspring each species gets. Sizes
// move halfway from the previous size towards the fitness-proportional share
// and are then normalised so they add up to exactly popSize.
func computeSpawnAmounts(adjusted []float64, adjustedSum float64, previousSizes []int, popSize, minSize int, rng *rand.Rand) []int {
	amounts := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		target := float64(minSize)
		if adjustedSum > 0 {
			target = math.Max(target, af/adjustedSum*float64(popSize))
		}
		d := (target - float64(previousSizes[i])) * 0.5
		c := int(math.Round(d))
		spawn := previousSizes[i]
		switch {
		case c != 0:
			spawn += c
		case d > 0:
			spawn++
		case d < 0:
			spawn--
		}
		amounts[i] = max(minSize, spawn)
		total += amounts[i]
	}

	norm := float64(popSize) / float64(total)
	total = 0
	for i, a := range amounts {
		amounts[i] = max(minSize, int(math.Round(float64(a)*norm)))
		total += amounts[i]
	}

	// Settle rounding differences on randomly ordered species.
	diff := popSize - total
	for diff > 0 {
		for _, idx := range rng.Perm(len(amounts)) {
			if diff == 0 {
				break
			}
			amounts[idx]++
			diff--
		}
	}
	for diff < 0 {
		shrunk := false
		for _, idx := range rng.Perm(len(amounts)) {
			if diff == 0 {
				break
			}
			if amounts[idx] > minSize {
				amounts[idx]--
				diff++
				shrunk = true
			}
		}
		if !shrunk {
			break
		}
	}

	// Too many species to give each minSize: the weakest get nothing.
	if diff < 0 {
		order := make([]int, len(amounts))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return adjusted[order[a]] < adjusted[order[b]] })
		for _, idx := range order {
			for amounts[idx] > 0 && diff < 0 {
				amounts[idx]--
				diff++
			}
		}
	}
	return amounts
}
