package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// --------------------------- NodeGene ---------------------------

// NodeGene is a hidden or output neuron. Input nodes have no gene; they are
// implied by the genome's input count and carry negative keys.
type NodeGene struct {
	Key         int // 0..outputs-1 for outputs, >= outputs for hidden nodes.
	Bias        float64
	Activation  string
	Aggregation string
}

// newNodeGene creates a node with a freshly drawn bias. Unbiased genomes keep
// the bias at zero.
func newNodeGene(key int, activation string, biased bool, params *Parameters, rng *rand.Rand) *NodeGene {
	ng := &NodeGene{
		Key:         key,
		Activation:  activation,
		Aggregation: params.Aggregation,
	}
	if biased {
		ng.Bias = initFloatAttribute(params.BiasInitStdev, params.MaxBias, rng)
	}
	return ng
}

// String returns a string representation of the NodeGene.
func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// mutate perturbs or replaces the bias and occasionally swaps the activation.
func (ng *NodeGene) mutate(biased bool, params *Parameters, rng *rand.Rand) {
	if biased {
		ng.Bias = mutateFloatAttribute(ng.Bias, params.BiasMutateRate, params.BiasReplaceRate,
			params.BiasMutatePower, params.BiasInitStdev, params.MaxBias, rng)
	}
	ng.Activation = mutateStringAttribute(ng.Activation, params.ActivationMutateRate, params.activationOptions(), rng)
}

// distance compares two homologous nodes.
func (ng *NodeGene) distance(other *NodeGene) float64 {
	d := math.Abs(ng.Bias - other.Bias)
	if ng.Activation != other.Activation {
		d += 1.0
	}
	if ng.Aggregation != other.Aggregation {
		d += 1.0
	}
	return d
}

// crossover inherits each attribute from either parent with equal odds.
func (ng *NodeGene) crossover(other *NodeGene, rng *rand.Rand) *NodeGene {
	child := ng.Copy()
	if rng.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if rng.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if rng.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey identifies a connection by its endpoints. It doubles as the
// innovation marker used to align genes during crossover.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene is a weighted link between two nodes.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

func newConnectionGene(key ConnectionKey, params *Parameters, rng *rand.Rand) *ConnectionGene {
	return &ConnectionGene{
		Key:     key,
		Weight:  initFloatAttribute(params.WeightInitStdev, params.MaxWeight, rng),
		Enabled: true,
	}
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// distance compares two homologous connections.
func (cg *ConnectionGene) distance(other *ConnectionGene) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d += 1.0
	}
	return d
}

func (cg *ConnectionGene) crossover(other *ConnectionGene, rng *rand.Rand) *ConnectionGene {
	child := cg.Copy()
	if rng.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if rng.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}

// --------------------------- Attribute Helpers ---------------------------

// initFloatAttribute draws from N(0, stdev) clamped to [-limit, limit].
func initFloatAttribute(stdev, limit float64, rng *rand.Rand) float64 {
	return clamp(rng.NormFloat64()*stdev, -limit, limit)
}

// mutateFloatAttribute perturbs value with probability mutateRate, replaces it
// with probability replaceRate, and otherwise leaves it alone.
func mutateFloatAttribute(value, mutateRate, replaceRate, power, stdev, limit float64, rng *rand.Rand) float64 {
	r := rng.Float64()
	switch {
	case r < mutateRate:
		return clamp(value+rng.NormFloat64()*power, -limit, limit)
	case r < mutateRate+replaceRate:
		return initFloatAttribute(stdev, limit, rng)
	default:
		return value
	}
}

func mutateStringAttribute(value string, rate float64, options []string, rng *rand.Rand) string {
	if len(options) <= 1 || rate <= 0 || rng.Float64() >= rate {
		return value
	}
	// Pick among the options other than the current value.
	alternatives := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != value {
			alternatives = append(alternatives, opt)
		}
	}
	if len(alternatives) == 0 {
		return value
	}
	return alternatives[rng.Intn(len(alternatives))]
}
