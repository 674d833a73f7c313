package fare

import (
	"math"
	"strconv"
	"strings"
)

// ParseTripProgress reads a progress value as a fraction ("0.5"), a
// percentage ("50%") or the keyword "arrived". It returns the fraction and
// whether the provider has arrived.
func ParseTripProgress(raw string) (float64, bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false, nil
	}
	if s == "arrived" {
		return 1, true, nil
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, newInputError("trip_progress", "must be a fraction, a percentage or \"arrived\"")
	}

	v /= scale
	if v < 0 || v > 1 {
		return 0, false, newInputError("trip_progress", "must be between 0 and 1")
	}
	return v, false, nil
}
