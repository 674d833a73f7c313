package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/richxcame/fare-engine/internal/fare"
)

// ErrInvalidPatch is returned when an administrative update cannot be applied
var ErrInvalidPatch = errors.New("invalid configuration patch")

// UpdateConfigRequest is the body of an administrative update
type UpdateConfigRequest struct {
	Reason string             `json:"reason"`
	Patch  ConfigurationPatch `json:"patch"`
}

// ConfigurationPatch names every field an administrator may change. Nil
// fields are left untouched.
type ConfigurationPatch struct {
	Currency     *string                                 `json:"currency,omitempty"`
	DefaultRate  *RatePatch                              `json:"default_rate,omitempty"`
	Services     map[fare.ServiceType]*ServiceRatesPatch `json:"services,omitempty"`
	Distance     *DistancePatch                          `json:"distance,omitempty"`
	RoundTrip    *RoundTripPatch                         `json:"round_trip,omitempty"`
	Night        *NightPatch                             `json:"night,omitempty"`
	Surge        *SurgePatch                             `json:"surge,omitempty"`
	Waiting      *WaitingPatch                           `json:"waiting,omitempty"`
	Cancellation *CancellationPatch                      `json:"cancellation,omitempty"`
	PlatformFee  *PlatformFeePatch                       `json:"platform_fee,omitempty"`
	VAT          *VATPatch                               `json:"vat,omitempty"`
}

type RatePatch struct {
	BaseFare  *float64 `json:"base_fare,omitempty"`
	PerKmRate *float64 `json:"per_km_rate,omitempty"`
}

// VariantRatePatch updates or creates a variant. ClearFixedPrice turns a
// fixed-price variant back into a distance priced one.
type VariantRatePatch struct {
	BaseFare        *float64 `json:"base_fare,omitempty"`
	PerKmRate       *float64 `json:"per_km_rate,omitempty"`
	FixedPrice      *float64 `json:"fixed_price,omitempty"`
	ClearFixedPrice bool     `json:"clear_fixed_price,omitempty"`
}

type ServiceRatesPatch struct {
	DefaultRate    *RatePatch                   `json:"default_rate,omitempty"`
	MinimumFare    *float64                     `json:"minimum_fare,omitempty"`
	Variants       map[string]*VariantRatePatch `json:"variants,omitempty"`
	RemoveVariants []string                     `json:"remove_variants,omitempty"`
}

type CityWisePatch struct {
	Enabled      *bool    `json:"enabled,omitempty"`
	AboveKm      *float64 `json:"above_km,omitempty"`
	AdjustedRate *float64 `json:"adjusted_rate,omitempty"`
}

type DistancePatch struct {
	CoverageKm  *float64       `json:"coverage_km,omitempty"`
	MinimumFare *float64       `json:"minimum_fare,omitempty"`
	CityWise    *CityWisePatch `json:"city_wise,omitempty"`
}

type FreeStayPatch struct {
	Enabled        *bool    `json:"enabled,omitempty"`
	MinutesPerKm   *float64 `json:"minutes_per_km,omitempty"`
	MaximumMinutes *float64 `json:"maximum_minutes,omitempty"`
}

type RefreshmentAlertPatch struct {
	Enabled        *bool    `json:"enabled,omitempty"`
	MinDistanceKm  *float64 `json:"min_distance_km,omitempty"`
	MinDurationMin *float64 `json:"min_duration_min,omitempty"`
}

type RoundTripPatch struct {
	Multiplier       *float64               `json:"multiplier,omitempty"`
	FreeStay         *FreeStayPatch         `json:"free_stay,omitempty"`
	RefreshmentAlert *RefreshmentAlertPatch `json:"refreshment_alert,omitempty"`
}

type NightPatch struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	StartHour   *int     `json:"start_hour,omitempty"`
	EndHour     *int     `json:"end_hour,omitempty"`
	FixedAmount *float64 `json:"fixed_amount,omitempty"`
	Multiplier  *float64 `json:"multiplier,omitempty"`
}

// SurgePatch replaces the tier list as a whole when Tiers is set
type SurgePatch struct {
	Enabled *bool             `json:"enabled,omitempty"`
	Tiers   *[]fare.SurgeTier `json:"tiers,omitempty"`
}

type WaitingPatch struct {
	FreeMinutes   *float64 `json:"free_minutes,omitempty"`
	PerMinuteRate *float64 `json:"per_minute_rate,omitempty"`
	MaximumCharge *float64 `json:"maximum_charge,omitempty"`
}

type CancellationPatch struct {
	BeforeArrival  *float64 `json:"before_arrival,omitempty"`
	After25Percent *float64 `json:"after_25_percent,omitempty"`
	After50Percent *float64 `json:"after_50_percent,omitempty"`
	AfterArrival   *float64 `json:"after_arrival,omitempty"`
}

type PlatformFeePatch struct {
	Percentage       *float64 `json:"percentage,omitempty"`
	DriverSharePct   *float64 `json:"driver_share_pct,omitempty"`
	CustomerSharePct *float64 `json:"customer_share_pct,omitempty"`
}

type VATPatch struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// DecodeUpdateRequest reads an update body strictly: unknown keys and
// trailing data are rejected.
func DecodeUpdateRequest(r io.Reader) (*UpdateConfigRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req UpdateConfigRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after patch body", ErrInvalidPatch)
	}
	if len(req.Reason) > 500 {
		return nil, fmt.Errorf("%w: reason exceeds 500 characters", ErrInvalidPatch)
	}
	if req.Patch.IsEmpty() {
		return nil, fmt.Errorf("%w: patch changes nothing", ErrInvalidPatch)
	}
	return &req, nil
}

// IsEmpty reports whether the patch names no field at all
func (p ConfigurationPatch) IsEmpty() bool {
	return len(p.Sections()) == 0
}

// Sections lists the top level sections the patch touches, sorted
func (p ConfigurationPatch) Sections() []string {
	var sections []string
	add := func(set bool, name string) {
		if set {
			sections = append(sections, name)
		}
	}
	add(p.Currency != nil, "currency")
	add(p.DefaultRate != nil, "default_rate")
	add(len(p.Services) > 0, "services")
	add(p.Distance != nil, "distance")
	add(p.RoundTrip != nil, "round_trip")
	add(p.Night != nil, "night")
	add(p.Surge != nil, "surge")
	add(p.Waiting != nil, "waiting")
	add(p.Cancellation != nil, "cancellation")
	add(p.PlatformFee != nil, "platform_fee")
	add(p.VAT != nil, "vat")
	sort.Strings(sections)
	return sections
}

// Apply returns a patched deep copy of base. base is never modified. The
// result still has to pass Validate before it may be stored.
func (p ConfigurationPatch) Apply(base *fare.PricingConfiguration) *fare.PricingConfiguration {
	next := base.Clone()

	setString(&next.Currency, p.Currency)
	p.DefaultRate.apply(&next.DefaultRate)

	for service, sp := range p.Services {
		if sp == nil {
			continue
		}
		if next.Services == nil {
			next.Services = make(map[fare.ServiceType]fare.ServiceRates)
		}
		rates := next.Services[service]
		sp.apply(&rates)
		next.Services[service] = rates
	}

	if d := p.Distance; d != nil {
		setFloat(&next.Distance.CoverageKm, d.CoverageKm)
		setFloat(&next.Distance.MinimumFare, d.MinimumFare)
		if cw := d.CityWise; cw != nil {
			setBool(&next.Distance.CityWise.Enabled, cw.Enabled)
			setFloat(&next.Distance.CityWise.AboveKm, cw.AboveKm)
			setFloat(&next.Distance.CityWise.AdjustedRate, cw.AdjustedRate)
		}
	}

	if rt := p.RoundTrip; rt != nil {
		setFloat(&next.RoundTrip.Multiplier, rt.Multiplier)
		if fs := rt.FreeStay; fs != nil {
			setBool(&next.RoundTrip.FreeStay.Enabled, fs.Enabled)
			setFloat(&next.RoundTrip.FreeStay.MinutesPerKm, fs.MinutesPerKm)
			setFloat(&next.RoundTrip.FreeStay.MaximumMinutes, fs.MaximumMinutes)
		}
		if ra := rt.RefreshmentAlert; ra != nil {
			setBool(&next.RoundTrip.RefreshmentAlert.Enabled, ra.Enabled)
			setFloat(&next.RoundTrip.RefreshmentAlert.MinDistanceKm, ra.MinDistanceKm)
			setFloat(&next.RoundTrip.RefreshmentAlert.MinDurationMin, ra.MinDurationMin)
		}
	}

	if n := p.Night; n != nil {
		setBool(&next.Night.Enabled, n.Enabled)
		if n.StartHour != nil {
			next.Night.StartHour = *n.StartHour
		}
		if n.EndHour != nil {
			next.Night.EndHour = *n.EndHour
		}
		setFloat(&next.Night.FixedAmount, n.FixedAmount)
		setFloat(&next.Night.Multiplier, n.Multiplier)
	}

	if s := p.Surge; s != nil {
		setBool(&next.Surge.Enabled, s.Enabled)
		if s.Tiers != nil {
			next.Surge.Tiers = append([]fare.SurgeTier{}, (*s.Tiers)...)
		}
	}

	if w := p.Waiting; w != nil {
		setFloat(&next.Waiting.FreeMinutes, w.FreeMinutes)
		setFloat(&next.Waiting.PerMinuteRate, w.PerMinuteRate)
		setFloat(&next.Waiting.MaximumCharge, w.MaximumCharge)
	}

	if c := p.Cancellation; c != nil {
		setFloat(&next.Cancellation.BeforeArrival, c.BeforeArrival)
		setFloat(&next.Cancellation.After25Percent, c.After25Percent)
		setFloat(&next.Cancellation.After50Percent, c.After50Percent)
		setFloat(&next.Cancellation.AfterArrival, c.AfterArrival)
	}

	if f := p.PlatformFee; f != nil {
		setFloat(&next.PlatformFee.Percentage, f.Percentage)
		setFloat(&next.PlatformFee.DriverSharePct, f.DriverSharePct)
		setFloat(&next.PlatformFee.CustomerSharePct, f.CustomerSharePct)
	}

	if v := p.VAT; v != nil {
		setBool(&next.VAT.Enabled, v.Enabled)
		setFloat(&next.VAT.Percentage, v.Percentage)
	}

	return next
}

func (p *RatePatch) apply(r *fare.Rate) {
	if p == nil {
		return
	}
	setFloat(&r.BaseFare, p.BaseFare)
	setFloat(&r.PerKmRate, p.PerKmRate)
}

func (p *ServiceRatesPatch) apply(rates *fare.ServiceRates) {
	if p.DefaultRate != nil {
		if rates.DefaultRate == nil {
			rates.DefaultRate = &fare.Rate{}
		}
		p.DefaultRate.apply(rates.DefaultRate)
	}
	if p.MinimumFare != nil {
		m := *p.MinimumFare
		rates.MinimumFare = &m
	}

	for _, name := range p.RemoveVariants {
		delete(rates.Variants, name)
	}
	for name, vp := range p.Variants {
		if vp == nil {
			continue
		}
		if rates.Variants == nil {
			rates.Variants = make(map[string]fare.VariantRate)
		}
		v := rates.Variants[name]
		setFloat(&v.BaseFare, vp.BaseFare)
		setFloat(&v.PerKmRate, vp.PerKmRate)
		if vp.ClearFixedPrice {
			v.FixedPrice = nil
		}
		if vp.FixedPrice != nil {
			price := *vp.FixedPrice
			v.FixedPrice = &price
		}
		rates.Variants[name] = v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
