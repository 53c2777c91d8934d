package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-lending/lending"
)

func writeLoans(t *testing.T, dir string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Notes offered by Prospectus\n")
	b.WriteString("id,int_rate,loan_status,inq_last_6mths\n")
	for i := 0; i < 60; i++ {
		status := "Fully Paid"
		if i%4 == 0 {
			status = "Charged Off"
		}
		fmt.Fprintf(&b, "%d,%d.%02d%%,%s,%d\n", i, 5+i%20, i%100, status, i%5)
	}
	b.WriteString("1,,Current,\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LoanStats.csv"), []byte(b.String()), 0o644))
}

func testArgs(t *testing.T) args {
	in, out := t.TempDir(), t.TempDir()
	writeLoans(t, in)
	return args{
		Input:       in,
		Output:      out,
		Generations: 3,
		Training:    70,
		Parameter:   []string{"PopulationSize=15", "MutateAddNeuronProb=0.2"},
		Seed:        11,
		Workers:     2,
		History:     "sqlite",
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	a := testArgs(t)
	require.NoError(t, run(a))

	for _, pattern := range []string{
		"output.*.log", "maxFitnessGenome.*.ge", "winners.*.json", "losers.*.json",
		"sample.*.json", "selections.*.csv", "parameters.*.ini",
	} {
		matches, err := filepath.Glob(filepath.Join(a.Output, pattern))
		require.NoError(t, err)
		assert.Len(t, matches, 1, pattern)
	}
	_, err := os.Stat(filepath.Join(a.Output, "history.db"))
	assert.NoError(t, err)

	logs, err := filepath.Glob(filepath.Join(a.Output, "output.*.log"))
	require.NoError(t, err)
	content, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "LoanStats.csv had 60 valid rows, 1 invalid rows.")
	assert.Contains(t, string(content), "Winners: ")
	assert.Contains(t, string(content), "Done with generation: 2")
	assert.Contains(t, string(content), "Champion performance on test data")

	sample, err := filepath.Glob(filepath.Join(a.Output, "sample.*.json"))
	require.NoError(t, err)
	instances, err := lending.ReadInstances(sample[0])
	require.NoError(t, err)
	assert.Len(t, instances, 42)
}

func TestRunFailures(t *testing.T) {
	a := testArgs(t)
	a.Parameter = []string{"Bogus=1"}
	assert.ErrorIs(t, run(a), lending.ErrConfig)

	a = testArgs(t)
	a.Training = 0
	assert.ErrorIs(t, run(a), lending.ErrConfig)

	a = testArgs(t)
	a.Training = 101
	assert.ErrorIs(t, run(a), lending.ErrConfig)

	a = testArgs(t)
	a.History = "postgres"
	assert.ErrorIs(t, run(a), lending.ErrConfig)

	a = testArgs(t)
	a.Input = filepath.Join(a.Input, "missing")
	assert.ErrorIs(t, run(a), lending.ErrIO)

	matches, err := filepath.Glob(filepath.Join(a.Output, "*.json"))
	require.NoError(t, err)
	assert.Empty(t, matches, "failed runs leave no artifacts")
}

func TestResolveDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := resolveDir("~/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data"), got)

	got, err = resolveDir("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
