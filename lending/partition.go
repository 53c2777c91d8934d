package lending

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Partition is the fixed training/test split of a run.
type Partition struct {
	Training []Instance
	Test     []Instance
}

// Split samples floor(len(instances)*p) distinct indices into the training
// side and leaves the rest for testing. Both sides keep the input order.
func Split(instances []Instance, p float64, rng *rand.Rand) (Partition, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Partition{}, errors.Wrapf(ErrConfig, "training fraction %g is outside [0, 1]", p)
	}
	n := int(float64(len(instances)) * p)

	training := make(map[int]bool, n)
	for _, idx := range rng.Perm(len(instances))[:n] {
		training[idx] = true
	}

	part := Partition{
		Training: make([]Instance, 0, n),
		Test:     make([]Instance, 0, len(instances)-n),
	}
	for i, inst := range instances {
		if training[i] {
			part.Training = append(part.Training, inst)
		} else {
			part.Test = append(part.Test, inst)
		}
	}
	return part, nil
}
