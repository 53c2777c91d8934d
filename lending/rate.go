package lending

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxRate is the exclusive upper bound for an accepted interest-rate
// fraction. Rows above it are treated as bad data.
const MaxRate = 0.4

// PercentToFraction converts a percentage such as "13.57%" into the fraction
// 0.1357. Surrounding whitespace is ignored. The input needs a trailing '%' and exactly one '.'; the result is
// computed from the concatenated digits with a single division and must lie
// in (0, MaxRate).
func PercentToFraction(percent string) (float64, error) {
	body, ok := strings.CutSuffix(strings.TrimSpace(percent), "%")
	if !ok {
		return 0, errors.Wrapf(ErrInvalidRate, "%q has no trailing %%", percent)
	}
	intPart, fracPart, ok := strings.Cut(body, ".")
	if !ok || strings.Contains(fracPart, ".") {
		return 0, errors.Wrapf(ErrInvalidRate, "%q needs exactly one '.'", percent)
	}
	digits := intPart + fracPart
	if digits == "" || !allDigits(digits) {
		return 0, errors.Wrapf(ErrInvalidRate, "%q is not a decimal percentage", percent)
	}
	raw, err := strconv.ParseUint(digits, 10, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidRate, "%q: %v", percent, err)
	}

	result := float64(raw) / (100 * math.Pow10(len(fracPart)))
	if result <= 0 || result >= MaxRate {
		return 0, errors.Wrapf(ErrInvalidRate, "%q is outside (0, %g)", percent, MaxRate)
	}
	return result, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
