package neat

import (
	"math"
	"sort"

	"go.uber.org/zap"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // Generation the species first appeared in.
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64 // Reduced member fitness, see SpeciesFitnessFunc.
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates an empty species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Fitnesses returns member fitness values ordered by genome key.
func (s *Species) Fitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.sortedMembers() {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

func (s *Species) sortedMembers() []*Genome {
	members := make([]*Genome, 0, len(s.Members))
	for _, g := range s.Members {
		members = append(members, g)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
	return members
}

// --------------------------- distanceCache ---------------------------

type genomePair struct{ a, b int }

// distanceCache memoises pairwise genome distances for one speciation pass.
type distanceCache struct {
	params    *Parameters
	distances map[genomePair]float64
}

func newDistanceCache(params *Parameters) *distanceCache {
	return &distanceCache{params: params, distances: make(map[genomePair]float64)}
}

func (dc *distanceCache) distance(g1, g2 *Genome) float64 {
	pair := genomePair{g1.Key, g2.Key}
	if pair.a > pair.b {
		pair.a, pair.b = pair.b, pair.a
	}
	if d, ok := dc.distances[pair]; ok {
		return d
	}
	d := g1.Distance(g2, dc.params)
	dc.distances[pair] = d
	return d
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet partitions the population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Threshold       float64
	indexer         int
	logger          *zap.Logger
}

// NewSpeciesSet creates a species set splitting at the given compatibility
// threshold.
func NewSpeciesSet(threshold float64, logger *zap.Logger) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Threshold:       threshold,
		indexer:         1,
		logger:          logger,
	}
}

// Speciate assigns every genome to a species. Existing species keep the
// genome closest to their old representative as the new one; the rest join
// the nearest representative under the threshold or found a new species.
func (ss *SpeciesSet) Speciate(params *Parameters, population map[int]*Genome, generation int) {
	cache := newDistanceCache(params)

	unspeciated := make(map[int]*Genome, len(population))
	for k, g := range population {
		unspeciated[k] = g
	}
	representatives := make(map[int]*Genome)
	members := make(map[int][]int)

	for _, sid := range ss.sortedSpeciesKeys() {
		s := ss.Species[sid]
		if len(unspeciated) == 0 || s.Representative == nil {
			continue
		}
		var closest *Genome
		best := math.Inf(1)
		for _, g := range sortedGenomes(unspeciated) {
			if d := cache.distance(s.Representative, g); d < best {
				best, closest = d, g
			}
		}
		representatives[sid] = closest
		members[sid] = []int{closest.Key}
		delete(unspeciated, closest.Key)
	}

	for _, g := range sortedGenomes(unspeciated) {
		bestSpecies := -1
		best := math.Inf(1)
		for _, sid := range sortedIntKeys(representatives) {
			d := cache.distance(representatives[sid], g)
			if d < ss.Threshold && d < best {
				best, bestSpecies = d, sid
			}
		}
		if bestSpecies == -1 {
			bestSpecies = ss.indexer
			ss.indexer++
			representatives[bestSpecies] = g
		}
		members[bestSpecies] = append(members[bestSpecies], g.Key)
	}

	species := make(map[int]*Species, len(representatives))
	genomeToSpecies := make(map[int]int, len(population))
	for sid, rep := range representatives {
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
			ss.logger.Debug("created species", zap.Int("species", sid), zap.Int("representative", rep.Key))
		}
		s.Representative = rep
		s.Members = make(map[int]*Genome, len(members[sid]))
		for _, gid := range members[sid] {
			s.Members[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		species[sid] = s
	}
	for sid := range ss.Species {
		if _, ok := species[sid]; !ok {
			ss.logger.Debug("species died out", zap.Int("species", sid))
		}
	}
	ss.Species = species
	ss.GenomeToSpecies = genomeToSpecies

	if len(cache.distances) > 0 {
		all := make([]float64, 0, len(cache.distances))
		for _, d := range cache.distances {
			all = append(all, d)
		}
		ss.logger.Debug("speciated",
			zap.Int("species", len(species)),
			zap.Float64("mean_distance", Mean(all)),
			zap.Float64("stdev_distance", Stdev(all)))
	}
}

// GetSpeciesID returns the species key for a genome key.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

func (ss *SpeciesSet) sortedSpeciesKeys() []int {
	return sortedIntKeys(ss.Species)
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedGenomes(m map[int]*Genome) []*Genome {
	out := make([]*Genome, 0, len(m))
	for _, k := range sortedIntKeys(m) {
		out = append(out, m[k])
	}
	return out
}
