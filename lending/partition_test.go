package lending

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []Instance {
	out := make([]Instance, n)
	for i := range out {
		out[i] = loan(0.01+float64(i%30)/100, StatusFullyPaid, i)
	}
	return out
}

func inqOf(inst Instance) int { return inst.Attributes[ColumnInquiries].(int) }

func TestSplit(t *testing.T) {
	instances := numbered(100)
	part, err := Split(instances, 0.7, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, part.Training, 70)
	require.Len(t, part.Test, 30)

	seen := make(map[int]bool)
	for _, side := range [][]Instance{part.Training, part.Test} {
		for i, inst := range side {
			id := inqOf(inst)
			assert.False(t, seen[id], "instance %d on both sides", id)
			seen[id] = true
			if i > 0 {
				assert.Less(t, inqOf(side[i-1]), id, "order is preserved")
			}
		}
	}
	assert.Len(t, seen, 100)
}

func TestSplitSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, tc := range []struct {
		n        int
		p        float64
		training int
	}{
		{10, 0, 0},
		{10, 1, 10},
		{7, 0.5, 3},
		{0, 0.7, 0},
		{3, 0.99, 2},
	} {
		part, err := Split(numbered(tc.n), tc.p, rng)
		require.NoError(t, err)
		assert.Len(t, part.Training, tc.training)
		assert.Len(t, part.Test, tc.n-tc.training)
	}
}

func TestSplitSeeded(t *testing.T) {
	a, err := Split(numbered(50), 0.5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := Split(numbered(50), 0.5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitRejectsFraction(t *testing.T) {
	for _, p := range []float64{-0.1, 1.01} {
		_, err := Split(numbered(5), p, rand.New(rand.NewSource(1)))
		assert.ErrorIs(t, err, ErrConfig)
	}
}

func TestWinnerCount(t *testing.T) {
	assert.Equal(t, 1, WinnerCount(twoLoans()))
	assert.Zero(t, WinnerCount(nil))
}
