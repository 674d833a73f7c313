package fare

import (
	"fmt"
	"sort"

	"github.com/richxcame/fare-engine/pkg/validation"
)

// ServiceType identifies a bookable service on the platform
type ServiceType string

// Service types
const (
	ServiceCarCab      ServiceType = "car_cab"
	ServiceBike        ServiceType = "bike"
	ServiceCarRecovery ServiceType = "car_recovery"
	ServiceShifting    ServiceType = "shifting"
	ServiceAppointment ServiceType = "appointment"
)

// Rate is a base fare plus a per-kilometre rate
type Rate struct {
	BaseFare  float64 `json:"base_fare" validate:"gte=0"`
	PerKmRate float64 `json:"per_km_rate" validate:"gte=0"`
}

// VariantRate prices a vehicle or category variant. A non-nil FixedPrice
// bypasses distance pricing entirely.
type VariantRate struct {
	BaseFare   float64  `json:"base_fare" validate:"gte=0"`
	PerKmRate  float64  `json:"per_km_rate" validate:"gte=0"`
	FixedPrice *float64 `json:"fixed_price,omitempty" validate:"omitempty,gte=0"`
}

// ServiceRates holds the rate table of a single service type
type ServiceRates struct {
	DefaultRate *Rate                  `json:"default_rate,omitempty"`
	MinimumFare *float64               `json:"minimum_fare,omitempty" validate:"omitempty,gte=0"`
	Variants    map[string]VariantRate `json:"variants,omitempty" validate:"dive,keys,slug,endkeys"`
}

// CityWiseAdjustment is the secondary rate charged beyond a longer distance threshold
type CityWiseAdjustment struct {
	Enabled      bool    `json:"enabled"`
	AboveKm      float64 `json:"above_km" validate:"gte=0"`
	AdjustedRate float64 `json:"adjusted_rate" validate:"gte=0"`
}

// DistanceRules controls the distance tiers and the fare floor
type DistanceRules struct {
	CoverageKm  float64            `json:"coverage_km" validate:"gte=0"`
	MinimumFare float64            `json:"minimum_fare" validate:"gte=0"`
	CityWise    CityWiseAdjustment `json:"city_wise"`
}

// FreeStayRules derives an informational waiting allowance for round trips
type FreeStayRules struct {
	Enabled        bool    `json:"enabled"`
	MinutesPerKm   float64 `json:"minutes_per_km" validate:"gte=0"`
	MaximumMinutes float64 `json:"maximum_minutes" validate:"gte=0"`
}

// RefreshmentAlertRules raises an advisory on long trips
type RefreshmentAlertRules struct {
	Enabled        bool    `json:"enabled"`
	MinDistanceKm  float64 `json:"min_distance_km" validate:"gte=0"`
	MinDurationMin float64 `json:"min_duration_min" validate:"gte=0"`
}

// RoundTripRules controls the return-leg multiplier and its advisories
type RoundTripRules struct {
	Multiplier       float64               `json:"multiplier" validate:"gte=0"`
	FreeStay         FreeStayRules         `json:"free_stay"`
	RefreshmentAlert RefreshmentAlertRules `json:"refreshment_alert"`
}

// NightRules controls the night surcharge
type NightRules struct {
	Enabled     bool    `json:"enabled"`
	StartHour   int     `json:"start_hour" validate:"gte=0,lte=23"`
	EndHour     int     `json:"end_hour" validate:"gte=0,lte=23"`
	FixedAmount float64 `json:"fixed_amount" validate:"gte=0"`
	Multiplier  float64 `json:"multiplier" validate:"gte=0"`
}

// SurgeTier maps a demand ratio threshold to a fare multiplier
type SurgeTier struct {
	DemandRatio float64 `json:"demand_ratio" validate:"gte=1"`
	Multiplier  float64 `json:"multiplier" validate:"gte=1"`
}

// SurgeRules controls demand based surge
type SurgeRules struct {
	Enabled bool        `json:"enabled"`
	Tiers   []SurgeTier `json:"tiers" validate:"dive"`
}

// WaitingRules controls waiting time charges. A zero MaximumCharge means uncapped.
type WaitingRules struct {
	FreeMinutes   float64 `json:"free_minutes" validate:"gte=0"`
	PerMinuteRate float64 `json:"per_minute_rate" validate:"gte=0"`
	MaximumCharge float64 `json:"maximum_charge" validate:"gte=0"`
}

// CancellationRules are the progress tiered cancellation charges
type CancellationRules struct {
	BeforeArrival  float64 `json:"before_arrival" validate:"gte=0"`
	After25Percent float64 `json:"after_25_percent" validate:"gte=0"`
	After50Percent float64 `json:"after_50_percent" validate:"gte=0"`
	AfterArrival   float64 `json:"after_arrival" validate:"gte=0"`
}

// PlatformFeeRules defines the platform fee and how it is split
type PlatformFeeRules struct {
	Percentage       float64 `json:"percentage" validate:"gte=0"`
	DriverSharePct   float64 `json:"driver_share_pct" validate:"gte=0"`
	CustomerSharePct float64 `json:"customer_share_pct" validate:"gte=0"`
}

// VATRules controls value added tax
type VATRules struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage" validate:"gte=0"`
}

// PricingConfiguration is an immutable snapshot of one pricing version.
// Compute only ever reads it.
type PricingConfiguration struct {
	Version      string                       `json:"version"`
	Currency     string                       `json:"currency" validate:"required,currency_code"`
	DefaultRate  Rate                         `json:"default_rate"`
	Services     map[ServiceType]ServiceRates `json:"services,omitempty" validate:"dive,keys,slug,endkeys"`
	Distance     DistanceRules                `json:"distance"`
	RoundTrip    RoundTripRules               `json:"round_trip"`
	Night        NightRules                   `json:"night"`
	Surge        SurgeRules                   `json:"surge"`
	Waiting      WaitingRules                 `json:"waiting"`
	Cancellation CancellationRules            `json:"cancellation"`
	PlatformFee  PlatformFeeRules             `json:"platform_fee"`
	VAT          VATRules                     `json:"vat"`
}

// Validate enforces the configuration invariants. It is meant for the
// administrative update path; Compute does not call it.
func (c *PricingConfiguration) Validate() error {
	if c == nil {
		return ErrConfigurationMissing
	}
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if c.PlatformFee.DriverSharePct+c.PlatformFee.CustomerSharePct > c.PlatformFee.Percentage {
		return fmt.Errorf("%w: driver share %.2f + customer share %.2f exceeds platform fee %.2f",
			ErrInvalidConfiguration,
			c.PlatformFee.DriverSharePct, c.PlatformFee.CustomerSharePct, c.PlatformFee.Percentage)
	}
	if c.Distance.CityWise.Enabled && c.Distance.CityWise.AboveKm < c.Distance.CoverageKm {
		return fmt.Errorf("%w: city-wise threshold %.2f km is below coverage %.2f km",
			ErrInvalidConfiguration, c.Distance.CityWise.AboveKm, c.Distance.CoverageKm)
	}
	return nil
}

// Clone returns a deep copy that shares no maps or slices with c
func (c *PricingConfiguration) Clone() *PricingConfiguration {
	if c == nil {
		return nil
	}
	out := *c
	if c.Services != nil {
		out.Services = make(map[ServiceType]ServiceRates, len(c.Services))
		for st, rates := range c.Services {
			cloned := ServiceRates{}
			if rates.DefaultRate != nil {
				r := *rates.DefaultRate
				cloned.DefaultRate = &r
			}
			if rates.MinimumFare != nil {
				m := *rates.MinimumFare
				cloned.MinimumFare = &m
			}
			if rates.Variants != nil {
				cloned.Variants = make(map[string]VariantRate, len(rates.Variants))
				for name, v := range rates.Variants {
					if v.FixedPrice != nil {
						p := *v.FixedPrice
						v.FixedPrice = &p
					}
					cloned.Variants[name] = v
				}
			}
			out.Services[st] = cloned
		}
	}
	if c.Surge.Tiers != nil {
		out.Surge.Tiers = append([]SurgeTier(nil), c.Surge.Tiers...)
	}
	return &out
}

// MinimumFareFor returns the fare floor for a service type
func (c *PricingConfiguration) MinimumFareFor(service ServiceType) float64 {
	if rates, ok := c.Services[service]; ok && rates.MinimumFare != nil {
		return *rates.MinimumFare
	}
	return c.Distance.MinimumFare
}

// sortedSurgeTiers returns the tiers ordered by descending threshold. Equal
// thresholds keep the larger multiplier first.
func sortedSurgeTiers(tiers []SurgeTier) []SurgeTier {
	sorted := append([]SurgeTier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DemandRatio != sorted[j].DemandRatio {
			return sorted[i].DemandRatio > sorted[j].DemandRatio
		}
		return sorted[i].Multiplier > sorted[j].Multiplier
	})
	return sorted
}

func float64Ptr(v float64) *float64 {
	return &v
}

// DefaultConfiguration returns the canonical platform configuration. It seeds
// the first stored version and backs the tests; it is never used as a silent
// fallback when no version is active.
func DefaultConfiguration() *PricingConfiguration {
	return &PricingConfiguration{
		Version:  "default",
		Currency: "AED",
		DefaultRate: Rate{
			BaseFare:  50,
			PerKmRate: 7.5,
		},
		Services: map[ServiceType]ServiceRates{
			ServiceCarCab: {
				Variants: map[string]VariantRate{
					"economy": {BaseFare: 50, PerKmRate: 7.5},
					"comfort": {BaseFare: 60, PerKmRate: 9},
					"premium": {BaseFare: 80, PerKmRate: 12},
				},
			},
			ServiceBike: {
				DefaultRate: &Rate{BaseFare: 20, PerKmRate: 3},
				MinimumFare: float64Ptr(20),
				Variants: map[string]VariantRate{
					"standard": {BaseFare: 20, PerKmRate: 3},
				},
			},
			ServiceCarRecovery: {
				Variants: map[string]VariantRate{
					"flatbed":    {BaseFare: 150, PerKmRate: 10},
					"wheel_lift": {BaseFare: 120, PerKmRate: 9},
					"jump_start": {FixedPrice: float64Ptr(80)},
					"fuel_drop":  {FixedPrice: float64Ptr(60)},
				},
			},
			ServiceShifting: {
				MinimumFare: float64Ptr(200),
				Variants: map[string]VariantRate{
					"small_truck":  {BaseFare: 200, PerKmRate: 15},
					"medium_truck": {BaseFare: 300, PerKmRate: 20},
					"large_truck":  {BaseFare: 450, PerKmRate: 25},
				},
			},
			ServiceAppointment: {
				Variants: map[string]VariantRate{
					"home_visit": {FixedPrice: float64Ptr(100)},
				},
			},
		},
		Distance: DistanceRules{
			CoverageKm:  6,
			MinimumFare: 50,
			CityWise: CityWiseAdjustment{
				Enabled:      true,
				AboveKm:      10,
				AdjustedRate: 5,
			},
		},
		RoundTrip: RoundTripRules{
			Multiplier: 1.8,
			FreeStay: FreeStayRules{
				Enabled:        true,
				MinutesPerKm:   2,
				MaximumMinutes: 120,
			},
			RefreshmentAlert: RefreshmentAlertRules{
				Enabled:        true,
				MinDistanceKm:  150,
				MinDurationMin: 180,
			},
		},
		Night: NightRules{
			Enabled:     true,
			StartHour:   22,
			EndHour:     6,
			FixedAmount: 10,
			Multiplier:  1.25,
		},
		Surge: SurgeRules{
			Enabled: true,
			Tiers: []SurgeTier{
				{DemandRatio: 2, Multiplier: 1.5},
				{DemandRatio: 3, Multiplier: 2.0},
			},
		},
		Waiting: WaitingRules{
			FreeMinutes:   5,
			PerMinuteRate: 2,
			MaximumCharge: 20,
		},
		Cancellation: CancellationRules{
			BeforeArrival:  0,
			After25Percent: 10,
			After50Percent: 20,
			AfterArrival:   30,
		},
		PlatformFee: PlatformFeeRules{
			Percentage:       15,
			DriverSharePct:   7.5,
			CustomerSharePct: 7.5,
		},
		VAT: VATRules{
			Enabled:    true,
			Percentage: 5,
		},
	}
}
