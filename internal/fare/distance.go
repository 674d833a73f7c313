package fare

// DistanceFare charges the distance beyond the coverage included in the base
// fare. With the city-wise adjustment enabled, kilometres past AboveKm are
// charged at AdjustedRate instead of perKmRate. The second return value
// reports whether the adjusted rate was used.
func DistanceFare(distanceKm, coverageKm, perKmRate float64, cityWise CityWiseAdjustment) (float64, bool) {
	if distanceKm <= coverageKm {
		return 0, false
	}

	remaining := distanceKm - coverageKm
	if !cityWise.Enabled || distanceKm <= cityWise.AboveKm {
		return remaining * perKmRate, false
	}

	adjustmentPoint := cityWise.AboveKm - coverageKm
	if adjustmentPoint < 0 {
		adjustmentPoint = 0
	}
	if remaining <= adjustmentPoint {
		return remaining * perKmRate, false
	}

	return adjustmentPoint*perKmRate + (remaining-adjustmentPoint)*cityWise.AdjustedRate, true
}

// ApplyMinimumFare lifts base+distance to the floor and reports whether it fired
func ApplyMinimumFare(baseFare, distanceFare, minimumFare float64) (float64, bool) {
	subtotal := baseFare + distanceFare
	if subtotal < minimumFare {
		return minimumFare, true
	}
	return subtotal, false
}
