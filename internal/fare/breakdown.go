package fare

import "math"

// Advisory alerts
const (
	AlertRefreshmentRecommended = "refreshment_recommended"
)

// Night charge methods
const (
	NightMethodFixed      = "fixed"
	NightMethodMultiplier = "multiplier"
)

// Cancellation tiers
const (
	CancellationTierProvider      = "provider_initiated"
	CancellationTierBeforeArrival = "before_arrival"
	CancellationTierAfter25       = "after_25_percent"
	CancellationTierAfter50       = "after_50_percent"
	CancellationTierAfterArrival  = "after_arrival"
)

// FareDetails records which rule fired at each stage
type FareDetails struct {
	RateSource          RateSource `json:"rate_source"`
	FallbackReason      string     `json:"fallback_reason,omitempty"`
	FixedPrice          bool       `json:"fixed_price"`
	CityWiseApplied     bool       `json:"city_wise_applied"`
	MinimumFareApplied  bool       `json:"minimum_fare_applied"`
	RoundTripApplied    bool       `json:"round_trip_applied"`
	RoundTripMultiplier float64    `json:"round_trip_multiplier,omitempty"`
	FreeStayMinutes     float64    `json:"free_stay_minutes,omitempty"`
	NightApplied        bool       `json:"night_applied"`
	NightMethod         string     `json:"night_method,omitempty"`
	SurgeTier           *SurgeTier `json:"surge_tier,omitempty"`
	BillableWaitingMin  float64    `json:"billable_waiting_minutes,omitempty"`
	WaitingCapped       bool       `json:"waiting_capped"`
	CancellationTier    string     `json:"cancellation_tier,omitempty"`
}

// FareBreakdown is the itemized result of a computation. It is never mutated
// after Compute returns.
type FareBreakdown struct {
	BaseFare           float64     `json:"base_fare"`
	DistanceFare       float64     `json:"distance_fare"`
	NightCharge        float64     `json:"night_charge"`
	SurgeCharge        float64     `json:"surge_charge"`
	WaitingCharge      float64     `json:"waiting_charge"`
	CancellationCharge float64     `json:"cancellation_charge"`
	PlatformFee        float64     `json:"platform_fee"`
	DriverFeeShare     float64     `json:"driver_fee_share"`
	CustomerFeeShare   float64     `json:"customer_fee_share"`
	VATAmount          float64     `json:"vat_amount"`
	Subtotal           float64     `json:"subtotal"`
	TotalFare          float64     `json:"total_fare"`
	Currency           string      `json:"currency"`
	ConfigVersion      string      `json:"config_version"`
	Details            FareDetails `json:"details"`
	Alerts             []string    `json:"alerts"`
}

// roundValues rounds all monetary values to 2 decimal places
func (b *FareBreakdown) roundValues() {
	b.BaseFare = roundMoney(b.BaseFare)
	b.DistanceFare = roundMoney(b.DistanceFare)
	b.NightCharge = roundMoney(b.NightCharge)
	b.SurgeCharge = roundMoney(b.SurgeCharge)
	b.WaitingCharge = roundMoney(b.WaitingCharge)
	b.CancellationCharge = roundMoney(b.CancellationCharge)
	b.PlatformFee = roundMoney(b.PlatformFee)
	b.DriverFeeShare = roundMoney(b.DriverFeeShare)
	b.CustomerFeeShare = roundMoney(b.CustomerFeeShare)
	b.VATAmount = roundMoney(b.VATAmount)
	b.Subtotal = roundMoney(b.Subtotal)
	b.TotalFare = roundMoney(b.TotalFare)
}

// roundMoney rounds half away from zero to 2 decimal places
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
