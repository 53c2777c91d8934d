package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// SeedType selects how a seed genome is wired.
type SeedType int

const (
	// SeedPerceptron links every input directly to every output. Hidden
	// nodes, if requested, are also wired between the two layers.
	SeedPerceptron SeedType = iota
	// SeedLayered routes inputs through the hidden layer only. Without hidden
	// nodes it is the same as SeedPerceptron.
	SeedLayered
)

// maxConnectionAttempts bounds the search for a new, acyclic connection.
const maxConnectionAttempts = 20

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key              int
	NumInputs        int
	NumOutputs       int
	Biased           bool   // When false every bias stays at zero.
	HiddenActivation string // Activation given to nodes added by mutation.
	Nodes            map[int]*NodeGene
	Connections      map[ConnectionKey]*ConnectionGene
	Fitness          float64
}

// NewGenome builds a seed genome with the given topology. Input nodes get
// keys -1..-inputs, outputs 0..outputs-1 and hidden nodes follow on from
// there.
func NewGenome(id, inputs, hidden, outputs int, bias bool, hiddenAct, outputAct string, seed SeedType, params *Parameters, rng *rand.Rand) (*Genome, error) {
	if inputs <= 0 || outputs <= 0 || hidden < 0 {
		return nil, fmt.Errorf("invalid genome shape: %d inputs, %d hidden, %d outputs", inputs, hidden, outputs)
	}
	for _, name := range []string{hiddenAct, outputAct} {
		if _, err := GetActivation(name); err != nil {
			return nil, err
		}
	}

	g := &Genome{
		Key:              id,
		NumInputs:        inputs,
		NumOutputs:       outputs,
		Biased:           bias,
		HiddenActivation: hiddenAct,
		Nodes:            make(map[int]*NodeGene),
		Connections:      make(map[ConnectionKey]*ConnectionGene),
	}

	outputKeys := g.OutputKeys()
	for _, ok := range outputKeys {
		g.Nodes[ok] = newNodeGene(ok, outputAct, bias, params, rng)
	}
	hiddenKeys := make([]int, hidden)
	for i := range hiddenKeys {
		hiddenKeys[i] = outputs + i
		g.Nodes[hiddenKeys[i]] = newNodeGene(hiddenKeys[i], hiddenAct, bias, params, rng)
	}

	link := func(in, out int) {
		key := ConnectionKey{InNodeID: in, OutNodeID: out}
		g.Connections[key] = newConnectionGene(key, params, rng)
	}
	for _, ik := range g.InputKeys() {
		for _, hk := range hiddenKeys {
			link(ik, hk)
		}
		if seed == SeedPerceptron || hidden == 0 {
			for _, ok := range outputKeys {
				link(ik, ok)
			}
		}
	}
	for _, hk := range hiddenKeys {
		for _, ok := range outputKeys {
			link(hk, ok)
		}
	}
	return g, nil
}

// InputKeys returns the implied input node keys, -1 first.
func (g *Genome) InputKeys() []int {
	keys := make([]int, g.NumInputs)
	for i := range keys {
		keys[i] = -(i + 1)
	}
	return keys
}

// OutputKeys returns the output node keys in output order.
func (g *Genome) OutputKeys() []int {
	keys := make([]int, g.NumOutputs)
	for i := range keys {
		keys[i] = i
	}
	return keys
}

// SetFitness records the score of the latest evaluation.
func (g *Genome) SetFitness(fitness float64) {
	g.Fitness = fitness
}

// Clone returns a deep copy that shares nothing with g.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Key:              g.Key,
		NumInputs:        g.NumInputs,
		NumOutputs:       g.NumOutputs,
		Biased:           g.Biased,
		HiddenActivation: g.HiddenActivation,
		Nodes:            make(map[int]*NodeGene, len(g.Nodes)),
		Connections:      make(map[ConnectionKey]*ConnectionGene, len(g.Connections)),
		Fitness:          g.Fitness,
	}
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, conn := range g.Connections {
		c.Connections[k] = conn.Copy()
	}
	return c
}

// Randomize redraws every weight and, for biased genomes, every bias.
func (g *Genome) Randomize(params *Parameters, rng *rand.Rand) {
	for _, k := range g.sortedConnectionKeys() {
		g.Connections[k].Weight = initFloatAttribute(params.WeightInitStdev, params.MaxWeight, rng)
	}
	if !g.Biased {
		return
	}
	for _, k := range g.sortedNodeKeys() {
		g.Nodes[k].Bias = initFloatAttribute(params.BiasInitStdev, params.MaxBias, rng)
	}
}

// crossover builds a child keyed childKey from two parents. Genes present only
// in the less fit parent are dropped.
func crossover(childKey int, parent1, parent2 *Genome, rng *rand.Rand) *Genome {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}

	child := &Genome{
		Key:              childKey,
		NumInputs:        parent1.NumInputs,
		NumOutputs:       parent1.NumOutputs,
		Biased:           parent1.Biased,
		HiddenActivation: parent1.HiddenActivation,
		Nodes:            make(map[int]*NodeGene, len(parent1.Nodes)),
		Connections:      make(map[ConnectionKey]*ConnectionGene, len(parent1.Connections)),
	}
	for _, k := range parent1.sortedNodeKeys() {
		n1 := parent1.Nodes[k]
		if n2, ok := parent2.Nodes[k]; ok {
			child.Nodes[k] = n1.crossover(n2, rng)
		} else {
			child.Nodes[k] = n1.Copy()
		}
	}
	for _, k := range parent1.sortedConnectionKeys() {
		c1 := parent1.Connections[k]
		if c2, ok := parent2.Connections[k]; ok {
			child.Connections[k] = c1.crossover(c2, rng)
		} else {
			child.Connections[k] = c1.Copy()
		}
	}
	return child
}

// Mutate applies structural mutations followed by attribute mutations.
func (g *Genome) Mutate(params *Parameters, innovations *Innovations, rng *rand.Rand) {
	structureMutated := false
	allowStructural := func() bool {
		return !params.SingleStructuralMutation || !structureMutated
	}

	if rng.Float64() < params.MutateAddNeuronProb {
		structureMutated = g.mutateAddNode(params, innovations, rng)
	}
	if allowStructural() && rng.Float64() < params.MutateAddLinkProb {
		structureMutated = g.mutateAddConnection(params, rng) || structureMutated
	}
	if allowStructural() && rng.Float64() < params.MutateRemLinkProb {
		g.mutateDeleteConnection(rng)
	}

	for _, k := range g.sortedNodeKeys() {
		g.Nodes[k].mutate(g.Biased, params, rng)
	}
	for _, k := range g.sortedConnectionKeys() {
		conn := g.Connections[k]
		conn.Weight = mutateFloatAttribute(conn.Weight, params.WeightMutateRate, params.WeightReplaceRate,
			params.WeightMutatePower, params.WeightInitStdev, params.MaxWeight, rng)
		if params.EnabledMutateRate > 0 && rng.Float64() < params.EnabledMutateRate {
			conn.Enabled = !conn.Enabled
		}
	}
}

// mutateAddNode splits a random enabled connection in two.
func (g *Genome) mutateAddNode(params *Parameters, innovations *Innovations, rng *rand.Rand) bool {
	var enabled []ConnectionKey
	for _, k := range g.sortedConnectionKeys() {
		if g.Connections[k].Enabled {
			enabled = append(enabled, k)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	split := g.Connections[enabled[rng.Intn(len(enabled))]]
	split.Enabled = false

	nodeKey := innovations.splitNode(split.Key)
	if _, exists := g.Nodes[nodeKey]; exists {
		nodeKey = innovations.newNode()
	}
	// A fresh node starts unbiased so the split initially preserves behaviour.
	g.Nodes[nodeKey] = newNodeGene(nodeKey, g.HiddenActivation, false, params, rng)

	in := ConnectionKey{InNodeID: split.Key.InNodeID, OutNodeID: nodeKey}
	out := ConnectionKey{InNodeID: nodeKey, OutNodeID: split.Key.OutNodeID}
	g.Connections[in] = &ConnectionGene{Key: in, Weight: 1.0, Enabled: true}
	g.Connections[out] = &ConnectionGene{Key: out, Weight: split.Weight, Enabled: true}
	return true
}

// mutateAddConnection links two previously unconnected nodes, refusing any
// link that would close a cycle.
func (g *Genome) mutateAddConnection(params *Parameters, rng *rand.Rand) bool {
	nodeKeys := g.sortedNodeKeys()
	sources := append(g.InputKeys(), nodeKeys...)
	if len(nodeKeys) == 0 {
		return false
	}

	for i := 0; i < maxConnectionAttempts; i++ {
		in := sources[rng.Intn(len(sources))]
		out := nodeKeys[rng.Intn(len(nodeKeys))]
		key := ConnectionKey{InNodeID: in, OutNodeID: out}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.createsCycle(in, out) {
			continue
		}
		g.Connections[key] = newConnectionGene(key, params, rng)
		return true
	}
	return false
}

func (g *Genome) mutateDeleteConnection(rng *rand.Rand) {
	keys := g.sortedConnectionKeys()
	if len(keys) == 0 {
		return
	}
	delete(g.Connections, keys[rng.Intn(len(keys))])
}

// createsCycle reports whether a link in->out would make out an ancestor of
// itself. Disabled connections count too, so re-enabling a gene, or
// inheriting its enabled flag during crossover, can never form a loop.
func (g *Genome) createsCycle(in, out int) bool {
	if in == out {
		return true
	}
	visited := map[int]bool{out: true}
	queue := []int{out}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for key := range g.Connections {
			if key.InNodeID != current {
				continue
			}
			if key.OutNodeID == in {
				return true
			}
			if !visited[key.OutNodeID] {
				visited[key.OutNodeID] = true
				queue = append(queue, key.OutNodeID)
			}
		}
	}
	return false
}

// Distance is the compatibility distance used for speciation: disjoint genes
// weighted by DisjointCoeff plus mean attribute difference of homologous genes
// weighted by WeightDiffCoeff, for nodes and connections alike.
func (g *Genome) Distance(other *Genome, params *Parameters) float64 {
	nodeDistance := 0.0
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint, diff := 0, 0.0
		for _, k := range g.sortedNodeKeys() {
			if n2, ok := other.Nodes[k]; ok {
				diff += g.Nodes[k].distance(n2)
			} else {
				disjoint++
			}
		}
		for k := range other.Nodes {
			if _, ok := g.Nodes[k]; !ok {
				disjoint++
			}
		}
		n := float64(max(len(g.Nodes), len(other.Nodes)))
		nodeDistance = (params.WeightDiffCoeff*diff + params.DisjointCoeff*float64(disjoint)) / n
	}

	connDistance := 0.0
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint, diff := 0, 0.0
		for _, k := range g.sortedConnectionKeys() {
			if c2, ok := other.Connections[k]; ok {
				diff += g.Connections[k].distance(c2)
			} else {
				disjoint++
			}
		}
		for k := range other.Connections {
			if _, ok := g.Connections[k]; !ok {
				disjoint++
			}
		}
		n := float64(max(len(g.Connections), len(other.Connections)))
		connDistance = (params.WeightDiffCoeff*diff + params.DisjointCoeff*float64(disjoint)) / n
	}
	return nodeDistance + connDistance
}

// maxNodeKey returns the largest node key, or -1 for a genome without nodes.
func (g *Genome) maxNodeKey() int {
	best := math.MinInt
	for k := range g.Nodes {
		best = max(best, k)
	}
	return max(best, -1)
}

func (g *Genome) sortedNodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) sortedConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}

// --------------------------- Innovations ---------------------------

// Innovations hands out hidden node keys. Splitting the same connection twice
// within one generation yields the same key, so independent mutations stay
// aligned for crossover.
type Innovations struct {
	nextNode int
	splits   map[ConnectionKey]int
}

// NewInnovations starts numbering new nodes at firstNode.
func NewInnovations(firstNode int) *Innovations {
	return &Innovations{nextNode: firstNode, splits: make(map[ConnectionKey]int)}
}

func (in *Innovations) newNode() int {
	key := in.nextNode
	in.nextNode++
	return key
}

func (in *Innovations) splitNode(split ConnectionKey) int {
	if key, ok := in.splits[split]; ok {
		return key
	}
	key := in.newNode()
	in.splits[split] = key
	return key
}

// nextGeneration forgets the split history of the previous generation.
func (in *Innovations) nextGeneration() {
	in.splits = make(map[ConnectionKey]int)
}
