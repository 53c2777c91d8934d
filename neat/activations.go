package neat

import (
	"fmt"
	"math"
)

// Activation names used when building seed genomes.
const (
	UnsignedSigmoid = "unsigned_sigmoid"
	SignedSigmoid   = "signed_sigmoid"
)

// sigmoidSlope is the steepness used by both sigmoid variants.
const sigmoidSlope = 4.9

// ActivationType transforms a node's aggregated, biased input.
type ActivationType func(x float64) float64

// ActivationFunctions maps configuration names to activation functions.
var ActivationFunctions = map[string]ActivationType{
	UnsignedSigmoid: UnsignedSigmoidActivation,
	SignedSigmoid:   SignedSigmoidActivation,
	"sigmoid":       UnsignedSigmoidActivation,
	"tanh":          math.Tanh,
	"relu":          ReLU,
	"identity":      Identity,
	"linear":        Identity,
	"clamped":       Clamped,
	"gaussian":      Gaussian,
	"abs":           math.Abs,
	"sine":          math.Sin,
	"step":          Step,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// UnsignedSigmoidActivation maps x into (0, 1).
func UnsignedSigmoidActivation(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-sigmoidSlope*x))
}

// SignedSigmoidActivation maps x into (-1, 1).
func SignedSigmoidActivation(x float64) float64 {
	return 2.0*UnsignedSigmoidActivation(x) - 1.0
}

// ReLU activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Identity activation function.
func Identity(x float64) float64 {
	return x
}

// Clamped limits x to [-1, 1].
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian activation function.
func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}

// Step is 1 for positive input and 0 otherwise.
func Step(x float64) float64 {
	if x > 0 {
		return 1.0
	}
	return 0.0
}
