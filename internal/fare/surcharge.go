package fare

import "time"

// NightResult is the outcome of the night surcharge
type NightResult struct {
	Charge  float64
	Applied bool
	Method  string
}

// NightCharge charges the larger of the fixed amount and the proportional
// delta when the trip is at night. A tie is reported as the fixed method.
func NightCharge(subtotal float64, req TripRequest, rules NightRules) NightResult {
	if !rules.Enabled {
		return NightResult{}
	}
	if !req.NightOverride && (req.TripTime.IsZero() || !InNightWindow(req.TripTime, rules)) {
		return NightResult{}
	}

	proportional := subtotal * (rules.Multiplier - 1)
	if proportional > rules.FixedAmount {
		return NightResult{Charge: proportional, Applied: true, Method: NightMethodMultiplier}
	}
	return NightResult{Charge: rules.FixedAmount, Applied: true, Method: NightMethodFixed}
}

// InNightWindow reports whether t falls in [StartHour, EndHour). The window
// wraps past midnight when StartHour > EndHour; equal hours make it empty.
func InNightWindow(t time.Time, rules NightRules) bool {
	hour := t.Hour()
	switch {
	case rules.StartHour == rules.EndHour:
		return false
	case rules.StartHour < rules.EndHour:
		return hour >= rules.StartHour && hour < rules.EndHour
	default:
		return hour >= rules.StartHour || hour < rules.EndHour
	}
}

// SurgeResult is the outcome of the surge surcharge
type SurgeResult struct {
	Charge float64
	Tier   *SurgeTier
}

// SurgeCharge charges subtotal*(multiplier-1) for the highest tier whose
// threshold does not exceed the demand ratio
func SurgeCharge(subtotal, demandRatio float64, rules SurgeRules) SurgeResult {
	tier, ok := MatchSurgeTier(demandRatio, rules)
	if !ok {
		return SurgeResult{}
	}
	return SurgeResult{
		Charge: subtotal * (tier.Multiplier - 1),
		Tier:   &tier,
	}
}

// MatchSurgeTier returns the highest qualifying tier. No surge applies while
// the ratio is at or below 1.
func MatchSurgeTier(demandRatio float64, rules SurgeRules) (SurgeTier, bool) {
	if !rules.Enabled || demandRatio <= 1 {
		return SurgeTier{}, false
	}
	for _, tier := range sortedSurgeTiers(rules.Tiers) {
		if tier.DemandRatio <= demandRatio {
			return tier, true
		}
	}
	return SurgeTier{}, false
}

// WaitingResult is the outcome of the waiting charge
type WaitingResult struct {
	Charge          float64
	BillableMinutes float64
	Capped          bool
}

// WaitingCharge bills minutes past the free allowance, capped at MaximumCharge.
// A zero MaximumCharge leaves the charge uncapped.
func WaitingCharge(waitingMinutes float64, rules WaitingRules) WaitingResult {
	if waitingMinutes <= rules.FreeMinutes {
		return WaitingResult{}
	}

	billable := waitingMinutes - rules.FreeMinutes
	charge := billable * rules.PerMinuteRate
	if rules.MaximumCharge > 0 && charge > rules.MaximumCharge {
		return WaitingResult{Charge: rules.MaximumCharge, BillableMinutes: billable, Capped: true}
	}
	return WaitingResult{Charge: charge, BillableMinutes: billable}
}

// CancellationResult is the outcome of the cancellation charge
type CancellationResult struct {
	Charge float64
	Tier   string
}

// CancellationCharge picks the highest matching progress tier for a cancelled
// trip. Provider initiated cancellations are free.
func CancellationCharge(req TripRequest, rules CancellationRules) CancellationResult {
	if !req.Cancelled {
		return CancellationResult{}
	}

	switch {
	case req.cancelledBy() == CancelledByProvider:
		return CancellationResult{Tier: CancellationTierProvider}
	case req.Arrived:
		return CancellationResult{Charge: rules.AfterArrival, Tier: CancellationTierAfterArrival}
	case req.TripProgress >= 0.5:
		return CancellationResult{Charge: rules.After50Percent, Tier: CancellationTierAfter50}
	case req.TripProgress >= 0.25:
		return CancellationResult{Charge: rules.After25Percent, Tier: CancellationTierAfter25}
	default:
		return CancellationResult{Charge: rules.BeforeArrival, Tier: CancellationTierBeforeArrival}
	}
}
