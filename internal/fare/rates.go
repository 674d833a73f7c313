package fare

import "fmt"

// RateSource records where a resolved rate came from
type RateSource string

// Rate sources, most to least specific
const (
	RateSourceFixedPrice     RateSource = "fixed_price"
	RateSourceVariant        RateSource = "variant"
	RateSourceServiceDefault RateSource = "service_default"
	RateSourcePlatform       RateSource = "platform_default"
)

// RateResolution is the output of rate resolution
type RateResolution struct {
	BaseFare       float64
	PerKmRate      float64
	IsFixedPrice   bool
	Source         RateSource
	FallbackReason string
}

// Fallback reports whether resolution landed on a default the caller should warn about
func (r RateResolution) Fallback() bool {
	return r.FallbackReason != ""
}

// ResolveRate selects the base fare and per-km rate for a service variant.
// Unknown service types and variants fall back to defaults instead of failing;
// FallbackReason says which lookup missed.
func ResolveRate(service ServiceType, variant string, cfg *PricingConfiguration) RateResolution {
	platform := RateResolution{
		BaseFare:  cfg.DefaultRate.BaseFare,
		PerKmRate: cfg.DefaultRate.PerKmRate,
		Source:    RateSourcePlatform,
	}

	rates, ok := cfg.Services[service]
	if !ok {
		platform.FallbackReason = fmt.Sprintf("unknown service type %q", service)
		return platform
	}

	if v, ok := rates.Variants[variant]; ok {
		if v.FixedPrice != nil {
			return RateResolution{
				BaseFare:     *v.FixedPrice,
				IsFixedPrice: true,
				Source:       RateSourceFixedPrice,
			}
		}
		return RateResolution{
			BaseFare:  v.BaseFare,
			PerKmRate: v.PerKmRate,
			Source:    RateSourceVariant,
		}
	}

	// A service without variants prices every request at its default rate
	reason := ""
	if variant != "" || len(rates.Variants) > 0 {
		reason = fmt.Sprintf("unknown variant %q for service %q", variant, service)
	}

	if rates.DefaultRate != nil {
		return RateResolution{
			BaseFare:       rates.DefaultRate.BaseFare,
			PerKmRate:      rates.DefaultRate.PerKmRate,
			Source:         RateSourceServiceDefault,
			FallbackReason: reason,
		}
	}

	if reason == "" {
		reason = fmt.Sprintf("service %q defines no rates", service)
	}
	platform.FallbackReason = reason
	return platform
}
