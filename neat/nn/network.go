package nn

import (
	"errors"
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-lending/neat"
)

// ErrInputSize is returned when an input vector does not match the network.
var ErrInputSize = errors.New("input size mismatch")

// neuralNode is a node prepared for activation.
type neuralNode struct {
	key         int
	bias        float64
	activation  neat.ActivationType
	aggregation neat.AggregationType
	incoming    []link
}

type link struct {
	from   int
	weight float64
}

// Network is a feed-forward phenotype. It is stateful: Input stores a
// vector, Activate propagates it through every node once, and Output reads
// the output nodes from the latest activation.
type Network struct {
	inputKeys  []int
	outputKeys []int
	evalOrder  []*neuralNode
	values     map[int]float64
	pending    []float64
}

// New builds a network from the enabled genes of g. Nodes are ordered
// topologically, so one activation is a complete forward pass.
func New(g *neat.Genome) (*Network, error) {
	nodes := make(map[int]*neuralNode, len(g.Nodes))
	for key, gn := range g.Nodes {
		act, err := neat.GetActivation(gn.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		agg, err := neat.GetAggregation(gn.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		nodes[key] = &neuralNode{key: key, bias: gn.Bias, activation: act, aggregation: agg}
	}

	inDegree := make(map[int]int, len(nodes))
	outgoing := make(map[int][]int)
	for key, conn := range g.Connections {
		if !conn.Enabled {
			continue
		}
		target, ok := nodes[key.OutNodeID]
		if !ok {
			return nil, fmt.Errorf("connection %d->%d targets a missing node", key.InNodeID, key.OutNodeID)
		}
		target.incoming = append(target.incoming, link{from: key.InNodeID, weight: conn.Weight})
		inDegree[key.OutNodeID]++
		outgoing[key.InNodeID] = append(outgoing[key.InNodeID], key.OutNodeID)
	}

	// Kahn's algorithm seeded with the inputs and every node nothing feeds.
	queue := append([]int(nil), g.InputKeys()...)
	for key := range nodes {
		if inDegree[key] == 0 {
			queue = append(queue, key)
		}
	}
	sort.Ints(queue)

	order := make([]*neuralNode, 0, len(nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if n, ok := nodes[current]; ok {
			sort.Slice(n.incoming, func(i, j int) bool { return n.incoming[i].from < n.incoming[j].from })
			order = append(order, n)
		}
		next := outgoing[current]
		sort.Ints(next)
		for _, target := range next {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}
	if len(order) != len(nodes) {
		return nil, fmt.Errorf("genome %d is not feed-forward: ordered %d of %d nodes", g.Key, len(order), len(nodes))
	}

	return &Network{
		inputKeys:  g.InputKeys(),
		outputKeys: g.OutputKeys(),
		evalOrder:  order,
		values:     make(map[int]float64, len(nodes)+g.NumInputs),
	}, nil
}

// Input stages values for the next activation.
func (net *Network) Input(values []float64) error {
	if len(values) != len(net.inputKeys) {
		return fmt.Errorf("%w: got %d values for %d inputs", ErrInputSize, len(values), len(net.inputKeys))
	}
	net.pending = append(net.pending[:0], values...)
	return nil
}

// Activate runs one forward pass over the staged input.
func (net *Network) Activate() error {
	if len(net.pending) != len(net.inputKeys) {
		return fmt.Errorf("%w: no input staged", ErrInputSize)
	}
	for i, key := range net.inputKeys {
		net.values[key] = net.pending[i]
	}

	var weighted []float64
	for _, node := range net.evalOrder {
		weighted = weighted[:0]
		for _, in := range node.incoming {
			weighted = append(weighted, net.values[in.from]*in.weight)
		}
		net.values[node.key] = node.activation(node.aggregation(weighted) + node.bias)
	}
	return nil
}

// Output returns the output node values of the latest activation.
func (net *Network) Output() []float64 {
	out := make([]float64, len(net.outputKeys))
	for i, key := range net.outputKeys {
		out[i] = net.values[key]
	}
	return out
}
