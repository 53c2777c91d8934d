package neat

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// parametersSection is the INI section holding every NEAT parameter.
const parametersSection = "NEAT"

// ErrInvalidParameter is returned for unknown keys, unparseable values and
// out-of-range settings.
var ErrInvalidParameter = errors.New("invalid parameter")

// trueStrings are the only override spellings that switch a boolean on.
var trueStrings = map[string]bool{"true": true, "True": true, "y": true, "Y": true}

// Parameters is the closed set of tunables for evolution. Field tags name the
// keys accepted in parameter files and key=value overrides.
type Parameters struct {
	// --- Population and reproduction ---
	PopulationSize    int     `ini:"PopulationSize"`
	Elitism           int     `ini:"Elitism"`      // Genomes copied unchanged per species.
	SurvivalRate      float64 `ini:"SurvivalRate"` // Fraction of each species allowed to breed.
	CrossoverRate     float64 `ini:"CrossoverRate"`
	MinSpeciesSize    int     `ini:"MinSpeciesSize"`
	ResetOnExtinction bool    `ini:"ResetOnExtinction"`

	// --- Speciation and stagnation ---
	CompatibilityThreshold float64 `ini:"CompatibilityThreshold"`
	DisjointCoeff          float64 `ini:"DisjointCoeff"`
	WeightDiffCoeff        float64 `ini:"WeightDiffCoeff"`
	MaxStagnation          int     `ini:"MaxStagnation"`
	SpeciesElitism         int     `ini:"SpeciesElitism"`
	SpeciesFitnessFunc     string  `ini:"SpeciesFitnessFunc"`

	// --- Structural mutation ---
	MutateAddNeuronProb      float64 `ini:"MutateAddNeuronProb"`
	MutateAddLinkProb        float64 `ini:"MutateAddLinkProb"`
	MutateRemLinkProb        float64 `ini:"MutateRemLinkProb"`
	SingleStructuralMutation bool    `ini:"SingleStructuralMutation"`

	// --- Connection weights ---
	WeightInitStdev   float64 `ini:"WeightInitStdev"`
	WeightMutateRate  float64 `ini:"WeightMutateRate"`
	WeightMutatePower float64 `ini:"WeightMutatePower"`
	WeightReplaceRate float64 `ini:"WeightReplaceRate"`
	MaxWeight         float64 `ini:"MaxWeight"`
	EnabledMutateRate float64 `ini:"EnabledMutateRate"`

	// --- Node biases and functions ---
	BiasInitStdev        float64 `ini:"BiasInitStdev"`
	BiasMutateRate       float64 `ini:"BiasMutateRate"`
	BiasMutatePower      float64 `ini:"BiasMutatePower"`
	BiasReplaceRate      float64 `ini:"BiasReplaceRate"`
	MaxBias              float64 `ini:"MaxBias"`
	ActivationMutateRate float64 `ini:"ActivationMutateRate"`
	ActivationOptions    string  `ini:"ActivationOptions"` // Space-separated activation names.
	Aggregation          string  `ini:"Aggregation"`
}

// DefaultParameters returns the parameter set used when nothing is overridden.
func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize:    150,
		Elitism:           1,
		SurvivalRate:      0.2,
		CrossoverRate:     0.75,
		MinSpeciesSize:    2,
		ResetOnExtinction: true,

		CompatibilityThreshold: 3.0,
		DisjointCoeff:          1.0,
		WeightDiffCoeff:        0.5,
		MaxStagnation:          15,
		SpeciesElitism:         1,
		SpeciesFitnessFunc:     "mean",

		MutateAddNeuronProb: 0.03,
		MutateAddLinkProb:   0.05,
		MutateRemLinkProb:   0.0,

		WeightInitStdev:   1.0,
		WeightMutateRate:  0.8,
		WeightMutatePower: 0.5,
		WeightReplaceRate: 0.1,
		MaxWeight:         8.0,
		EnabledMutateRate: 0.01,

		BiasInitStdev:        1.0,
		BiasMutateRate:       0.7,
		BiasMutatePower:      0.5,
		BiasReplaceRate:      0.1,
		MaxBias:              8.0,
		ActivationMutateRate: 0.0,
		ActivationOptions:    UnsignedSigmoid,
		Aggregation:          "sum",
	}
}

// LoadParameters reads the [NEAT] section of an INI file on top of the
// defaults. Keys outside the schema are rejected.
func LoadParameters(filePath string) (*Parameters, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameter file '%s': %w", filePath, err)
	}

	sec := cfg.Section(parametersSection)
	kinds := parameterKinds()
	for _, name := range sec.KeyStrings() {
		if _, ok := kinds[name]; !ok {
			return nil, fmt.Errorf("%w: unknown key '%s' in %s", ErrInvalidParameter, name, filePath)
		}
	}

	p := DefaultParameters()
	if err := sec.StrictMapTo(p); err != nil {
		return nil, fmt.Errorf("%w: failed to map [%s] section: %v", ErrInvalidParameter, parametersSection, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyOverrides assigns each key=value pair to the matching field, parsing
// the value by the field's declared type. Booleans are true only for one of
// "true", "True", "y" or "Y"; any other value turns them off.
func (p *Parameters) ApplyOverrides(overrides []string) error {
	if len(overrides) == 0 {
		return nil
	}

	kinds := parameterKinds()
	cfg := ini.Empty()
	sec := cfg.Section(parametersSection)
	for _, override := range overrides {
		key, value, ok := strings.Cut(override, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("%w: override '%s' is not key=value", ErrInvalidParameter, override)
		}
		kind, known := kinds[key]
		if !known {
			return fmt.Errorf("%w: unknown key '%s'", ErrInvalidParameter, key)
		}
		if kind == reflect.Bool {
			value = strconv.FormatBool(trueStrings[value])
		}
		if _, err := sec.NewKey(key, value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
		}
	}

	if err := sec.StrictMapTo(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return p.Validate()
}

// Validate checks value ranges and function names.
func (p *Parameters) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("%w: PopulationSize must be positive", ErrInvalidParameter)
	}
	if p.Elitism < 0 || p.SpeciesElitism < 0 {
		return fmt.Errorf("%w: elitism cannot be negative", ErrInvalidParameter)
	}
	if p.MinSpeciesSize <= 0 {
		return fmt.Errorf("%w: MinSpeciesSize must be positive", ErrInvalidParameter)
	}
	if p.MaxStagnation <= 0 {
		return fmt.Errorf("%w: MaxStagnation must be positive", ErrInvalidParameter)
	}
	if p.CompatibilityThreshold < 0 || p.DisjointCoeff < 0 || p.WeightDiffCoeff < 0 {
		return fmt.Errorf("%w: compatibility settings cannot be negative", ErrInvalidParameter)
	}
	if p.MaxWeight <= 0 || p.MaxBias < 0 {
		return fmt.Errorf("%w: MaxWeight must be positive and MaxBias non-negative", ErrInvalidParameter)
	}

	probabilities := map[string]float64{
		"SurvivalRate":         p.SurvivalRate,
		"CrossoverRate":        p.CrossoverRate,
		"MutateAddNeuronProb":  p.MutateAddNeuronProb,
		"MutateAddLinkProb":    p.MutateAddLinkProb,
		"MutateRemLinkProb":    p.MutateRemLinkProb,
		"WeightMutateRate":     p.WeightMutateRate,
		"WeightReplaceRate":    p.WeightReplaceRate,
		"EnabledMutateRate":    p.EnabledMutateRate,
		"BiasMutateRate":       p.BiasMutateRate,
		"BiasReplaceRate":      p.BiasReplaceRate,
		"ActivationMutateRate": p.ActivationMutateRate,
	}
	for name, v := range probabilities {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %g", ErrInvalidParameter, name, v)
		}
	}

	if _, ok := StatFunctions[p.SpeciesFitnessFunc]; !ok {
		return fmt.Errorf("%w: unknown SpeciesFitnessFunc '%s'", ErrInvalidParameter, p.SpeciesFitnessFunc)
	}
	if _, err := GetAggregation(p.Aggregation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	options := p.activationOptions()
	if len(options) == 0 {
		return fmt.Errorf("%w: ActivationOptions must name at least one function", ErrInvalidParameter)
	}
	for _, name := range options {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}
	return nil
}

// SaveTo writes the parameters as an INI file that LoadParameters accepts.
func (p *Parameters) SaveTo(filePath string) error {
	cfg := ini.Empty()
	if err := cfg.Section(parametersSection).ReflectFrom(p); err != nil {
		return fmt.Errorf("failed to reflect parameters: %w", err)
	}
	if err := cfg.SaveTo(filePath); err != nil {
		return fmt.Errorf("failed to save parameters to '%s': %w", filePath, err)
	}
	return nil
}

func (p *Parameters) activationOptions() []string {
	return strings.Fields(p.ActivationOptions)
}

// parameterKinds maps every accepted key to its field kind.
func parameterKinds() map[string]reflect.Kind {
	t := reflect.TypeOf(Parameters{})
	kinds := make(map[string]reflect.Kind, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := f.Tag.Get("ini"); name != "" {
			kinds[name] = f.Type.Kind()
		}
	}
	return kinds
}
