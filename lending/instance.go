package lending

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Column names read from the Lending Club export.
const (
	ColumnIntRate    = "int_rate"
	ColumnLoanStatus = "loan_status"
	ColumnInquiries  = "inq_last_6mths"
)

// LoanStatus is the outcome label of a loan.
type LoanStatus string

const (
	StatusDefault    LoanStatus = "Default"
	StatusFullyPaid  LoanStatus = "Fully Paid"
	StatusChargedOff LoanStatus = "Charged Off"
)

// Recognized reports whether s is one of the labels used for training.
func (s LoanStatus) Recognized() bool {
	switch s {
	case StatusDefault, StatusFullyPaid, StatusChargedOff:
		return true
	}
	return false
}

// Instance pairs the audit row of a loan with the feature vector fed to the
// networks. Attributes hold int_rate as its fraction and inq_last_6mths as
// an int once ingested; all other columns stay strings.
type Instance struct {
	Attributes map[string]any
	Features   []float64
}

// IntRate returns the interest-rate fraction of the loan.
func (i Instance) IntRate() float64 {
	switch v := i.Attributes[ColumnIntRate].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	if len(i.Features) > 0 {
		return i.Features[0]
	}
	return 0
}

// Status returns the loan_status label.
func (i Instance) Status() LoanStatus {
	s, _ := i.Attributes[ColumnLoanStatus].(string)
	return LoanStatus(s)
}

// IsWinner reports whether the loan was repaid.
func (i Instance) IsWinner() bool {
	return i.Status() == StatusFullyPaid
}

// MarshalJSON encodes the instance as the pair [attributes, features].
// Attribute keys come out sorted.
func (i Instance) MarshalJSON() ([]byte, error) {
	features := i.Features
	if features == nil {
		features = []float64{}
	}
	return json.Marshal([2]any{i.Attributes, features})
}

// UnmarshalJSON decodes the [attributes, features] pair. Integral attribute
// numbers decode to int so a written sample reads back unchanged.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Wrap(err, "decode instance")
	}
	if len(pair) != 2 {
		return errors.Errorf("decode instance: want 2 elements, got %d", len(pair))
	}

	dec := json.NewDecoder(bytes.NewReader(pair[0]))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return errors.Wrap(err, "decode instance attributes")
	}
	for k, v := range attrs {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if asInt, err := n.Int64(); err == nil {
			attrs[k] = int(asInt)
		} else if asFloat, err := n.Float64(); err == nil {
			attrs[k] = asFloat
		} else {
			return errors.Wrapf(err, "decode attribute %s", k)
		}
	}

	var features []float64
	if err := json.Unmarshal(pair[1], &features); err != nil {
		return errors.Wrap(err, "decode instance features")
	}
	i.Attributes = attrs
	i.Features = features
	return nil
}

// WinnerCount counts the repaid loans in instances.
func WinnerCount(instances []Instance) int {
	n := 0
	for _, inst := range instances {
		if inst.IsWinner() {
			n++
		}
	}
	return n
}
