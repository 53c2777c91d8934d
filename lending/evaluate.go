package lending

import "github.com/pkg/errors"

// SelectThreshold is the network output at or above which a loan is picked.
const SelectThreshold = 0.5

// Network is a stateful phenotype: Input stages a feature vector, Activate
// propagates it and Output reads the result.
type Network interface {
	Input(features []float64) error
	Activate() error
	Output() []float64
}

// Phenotyper builds a fresh network on every call.
type Phenotyper interface {
	BuildPhenotype() (Network, error)
}

// Result is the outcome of scoring one genome on a set of instances.
type Result struct {
	Fitness float64
	Winners []Instance
	Losers  []Instance
}

// Evaluate scores the network built from ph on instances. A selected repaid
// loan earns its interest rate, any other selected loan costs 1. Loans the
// network passes on do not count. Evaluate only reads its inputs, so
// distinct genomes may be scored concurrently.
func Evaluate(ph Phenotyper, instances []Instance) (Result, error) {
	res := Result{Winners: []Instance{}, Losers: []Instance{}}
	net, err := ph.BuildPhenotype()
	if err != nil {
		return Result{}, errors.Wrapf(ErrCollaborator, "build phenotype: %v", err)
	}

	for i, inst := range instances {
		if err := net.Input(inst.Features); err != nil {
			return Result{}, errors.Wrapf(ErrCollaborator, "instance %d input: %v", i, err)
		}
		if err := net.Activate(); err != nil {
			return Result{}, errors.Wrapf(ErrCollaborator, "instance %d activate: %v", i, err)
		}
		out := net.Output()
		if len(out) == 0 {
			return Result{}, errors.Wrap(ErrCollaborator, "network has no outputs")
		}
		if out[0] < SelectThreshold {
			continue
		}
		if inst.IsWinner() {
			res.Fitness += inst.IntRate()
			res.Winners = append(res.Winners, inst)
		} else {
			res.Fitness--
			res.Losers = append(res.Losers, inst)
		}
	}
	return res, nil
}
