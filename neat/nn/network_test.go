package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-lending/neat"
)

func newNode(key int, bias float64, act string) *neat.NodeGene {
	return &neat.NodeGene{Key: key, Bias: bias, Activation: act, Aggregation: "sum"}
}

func addLink(g *neat.Genome, in, out int, weight float64, enabled bool) {
	key := neat.ConnectionKey{InNodeID: in, OutNodeID: out}
	g.Connections[key] = &neat.ConnectionGene{Key: key, Weight: weight, Enabled: enabled}
}

func emptyGenome(inputs, outputs int) *neat.Genome {
	return &neat.Genome{
		NumInputs:   inputs,
		NumOutputs:  outputs,
		Nodes:       map[int]*neat.NodeGene{},
		Connections: map[neat.ConnectionKey]*neat.ConnectionGene{},
	}
}

func TestNetworkForwardPass(t *testing.T) {
	// -1 -> 1 -> 0 and -2 -> 0, hidden node 1 declared after output 0.
	g := emptyGenome(2, 1)
	g.Nodes[0] = newNode(0, 0.5, "identity")
	g.Nodes[1] = newNode(1, -1, "relu")
	addLink(g, -1, 1, 2, true)
	addLink(g, 1, 0, 3, true)
	addLink(g, -2, 0, -1, true)
	addLink(g, -2, 1, 100, false)

	net, err := New(g)
	require.NoError(t, err)
	require.NoError(t, net.Input([]float64{1, 4}))
	require.NoError(t, net.Activate())

	// hidden = relu(2*1 - 1) = 1; out = 3*1 - 4 + 0.5
	assert.InDelta(t, -0.5, net.Output()[0], 1e-12)

	require.NoError(t, net.Input([]float64{0, 0}))
	require.NoError(t, net.Activate())
	assert.InDelta(t, 0.5, net.Output()[0], 1e-12, "one activation fully replaces the previous state")
}

func TestNetworkUnconnectedOutput(t *testing.T) {
	g := emptyGenome(1, 1)
	g.Nodes[0] = newNode(0, 0, neat.UnsignedSigmoid)

	net, err := New(g)
	require.NoError(t, err)
	require.NoError(t, net.Input([]float64{3}))
	require.NoError(t, net.Activate())
	assert.InDelta(t, 0.5, net.Output()[0], 1e-12)
}

func TestNetworkInputSize(t *testing.T) {
	g := emptyGenome(2, 1)
	g.Nodes[0] = newNode(0, 0, "identity")
	net, err := New(g)
	require.NoError(t, err)

	assert.ErrorIs(t, net.Input([]float64{1}), ErrInputSize)
	assert.ErrorIs(t, net.Activate(), ErrInputSize)

	require.NoError(t, net.Input([]float64{1, 2}))
	assert.NoError(t, net.Activate())
	assert.ErrorIs(t, net.Input([]float64{1, 2, 3}), ErrInputSize)
}

func TestNewRejectsBadGenomes(t *testing.T) {
	cyclic := emptyGenome(1, 1)
	cyclic.Nodes[0] = newNode(0, 0, "identity")
	cyclic.Nodes[1] = newNode(1, 0, "identity")
	addLink(cyclic, 0, 1, 1, true)
	addLink(cyclic, 1, 0, 1, true)
	_, err := New(cyclic)
	assert.Error(t, err)

	dangling := emptyGenome(1, 1)
	dangling.Nodes[0] = newNode(0, 0, "identity")
	addLink(dangling, -1, 7, 1, true)
	_, err = New(dangling)
	assert.Error(t, err)

	badAct := emptyGenome(1, 1)
	badAct.Nodes[0] = newNode(0, 0, "nope")
	_, err = New(badAct)
	assert.Error(t, err)
}

func TestNetworkFromSeedGenome(t *testing.T) {
	params := neat.DefaultParameters()
	g, err := neat.NewGenome(0, 2, 0, 1, true, neat.UnsignedSigmoid, neat.UnsignedSigmoid,
		neat.SeedPerceptron, params, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	net, err := New(g)
	require.NoError(t, err)
	require.NoError(t, net.Input([]float64{0.12, 3}))
	require.NoError(t, net.Activate())

	out := net.Output()
	require.Len(t, out, 1)
	sum := g.Nodes[0].Bias +
		0.12*g.Connections[neat.ConnectionKey{InNodeID: -1, OutNodeID: 0}].Weight +
		3*g.Connections[neat.ConnectionKey{InNodeID: -2, OutNodeID: 0}].Weight
	assert.InDelta(t, 1/(1+math.Exp(-4.9*sum)), out[0], 1e-12)
}
