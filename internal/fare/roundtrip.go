package fare

import "math"

// RoundTripResult is the output of the round trip stage. Only Subtotal affects
// the price; the free stay and alert are advisory.
type RoundTripResult struct {
	Subtotal        float64
	Applied         bool
	Multiplier      float64
	FreeStayMinutes float64
	RefreshmentDue  bool
}

// AdjustRoundTrip applies the return leg multiplier for round trips
func AdjustRoundTrip(subtotal float64, req TripRequest, rules RoundTripRules) RoundTripResult {
	result := RoundTripResult{Subtotal: subtotal}
	if !req.isRoundTrip() {
		return result
	}

	result.Applied = true
	result.Multiplier = rules.Multiplier
	result.Subtotal = subtotal * rules.Multiplier

	if rules.FreeStay.Enabled {
		result.FreeStayMinutes = math.Min(req.DistanceKm*rules.FreeStay.MinutesPerKm, rules.FreeStay.MaximumMinutes)
	}

	alert := rules.RefreshmentAlert
	if alert.Enabled && (req.DistanceKm >= alert.MinDistanceKm || req.EstimatedDurationMin >= alert.MinDurationMin) {
		result.RefreshmentDue = true
	}

	return result
}
