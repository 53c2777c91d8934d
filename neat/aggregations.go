package neat

import (
	"fmt"
	"math"
)

// AggregationType combines the weighted inputs arriving at a node.
type AggregationType func(inputs []float64) float64

// AggregationFunctions maps configuration names to aggregation functions.
var AggregationFunctions = map[string]AggregationType{
	"sum":     Sum,
	"mean":    AggregateMean,
	"average": AggregateMean,
	"product": AggregateProduct,
	"max":     AggregateMax,
	"min":     AggregateMin,
	"maxabs":  AggregateMaxAbs,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationType, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateMean is Mean.
func AggregateMean(inputs []float64) float64 {
	return Mean(inputs)
}

// AggregateProduct multiplies the inputs. No inputs yields 0 so an
// unconnected node behaves like a summing one.
func AggregateProduct(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

// AggregateMax is the largest input, or 0 with no inputs.
func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MaxFloat(inputs)
}

// AggregateMin is the smallest input, or 0 with no inputs.
func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MinFloat(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}
