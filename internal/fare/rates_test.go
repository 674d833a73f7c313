package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRate(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Services["laundry"] = ServiceRates{}

	tests := []struct {
		name       string
		service    ServiceType
		variant    string
		base       float64
		perKm      float64
		fixed      bool
		source     RateSource
		isFallback bool
	}{
		{"known variant", ServiceCarCab, "premium", 80, 12, false, RateSourceVariant, false},
		{"fixed price variant", ServiceCarRecovery, "jump_start", 80, 0, true, RateSourceFixedPrice, false},
		{"unknown variant uses service default", ServiceBike, "cargo", 20, 3, false, RateSourceServiceDefault, true},
		{"unknown variant without service default", ServiceShifting, "container", 50, 7.5, false, RateSourcePlatform, true},
		{"unknown service", "helicopter", "", 50, 7.5, false, RateSourcePlatform, true},
		{"service without any rates", "laundry", "", 50, 7.5, false, RateSourcePlatform, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResolveRate(tt.service, tt.variant, cfg)
			assert.Equal(t, tt.base, r.BaseFare)
			assert.Equal(t, tt.perKm, r.PerKmRate)
			assert.Equal(t, tt.fixed, r.IsFixedPrice)
			assert.Equal(t, tt.source, r.Source)
			assert.Equal(t, tt.isFallback, r.Fallback())
		})
	}
}

func TestResolveRate_ServiceDefaultWithoutVariants(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Services["courier"] = ServiceRates{DefaultRate: &Rate{BaseFare: 15, PerKmRate: 2}}

	r := ResolveRate("courier", "", cfg)
	assert.Equal(t, RateSourceServiceDefault, r.Source)
	assert.Equal(t, 15.0, r.BaseFare)
	assert.False(t, r.Fallback())
}

func TestDistanceFare(t *testing.T) {
	cityWise := DefaultConfiguration().Distance.CityWise

	tests := []struct {
		name        string
		distance    float64
		cityWise    CityWiseAdjustment
		expected    float64
		cityApplied bool
	}{
		{"zero distance", 0, cityWise, 0, false},
		{"exactly coverage", 6, cityWise, 0, false},
		{"just past coverage", 7, cityWise, 7.5, false},
		{"exactly city-wise threshold", 10, cityWise, 30, false},
		{"past city-wise threshold", 15, cityWise, 55, true},
		{"city-wise disabled", 15, CityWiseAdjustment{AboveKm: 10, AdjustedRate: 5}, 67.5, false},
		{"threshold inside coverage charges all at adjusted rate", 9, CityWiseAdjustment{Enabled: true, AboveKm: 4, AdjustedRate: 5}, 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fare, applied := DistanceFare(tt.distance, 6, 7.5, tt.cityWise)
			assert.Equal(t, tt.expected, fare)
			assert.Equal(t, tt.cityApplied, applied)
		})
	}
}

func TestApplyMinimumFare(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		distance float64
		minimum  float64
		expected float64
		applied  bool
	}{
		{"below floor", 20, 10, 50, 50, true},
		{"equal to floor", 50, 0, 50, 50, false},
		{"above floor", 50, 15, 50, 65, false},
		{"zero floor", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, applied := ApplyMinimumFare(tt.base, tt.distance, tt.minimum)
			assert.Equal(t, tt.expected, subtotal)
			assert.Equal(t, tt.applied, applied)
		})
	}
}

func TestAssessFees(t *testing.T) {
	cfg := DefaultConfiguration()

	t.Run("fee then VAT on fee inclusive base", func(t *testing.T) {
		a := AssessFees(100, cfg.PlatformFee, cfg.VAT)
		assert.Equal(t, 15.0, a.PlatformFee)
		assert.Equal(t, 7.5, a.DriverFeeShare)
		assert.Equal(t, 7.5, a.CustomerFeeShare)
		assert.InDelta(t, 5.75, a.VATAmount, 1e-9)
	})

	t.Run("VAT disabled", func(t *testing.T) {
		a := AssessFees(100, cfg.PlatformFee, VATRules{Enabled: false, Percentage: 5})
		assert.Equal(t, 0.0, a.VATAmount)
	})

	t.Run("uneven split", func(t *testing.T) {
		a := AssessFees(200, PlatformFeeRules{Percentage: 10, DriverSharePct: 6, CustomerSharePct: 2}, VATRules{})
		assert.Equal(t, 20.0, a.PlatformFee)
		assert.InDelta(t, 12.0, a.DriverFeeShare, 1e-9)
		assert.InDelta(t, 4.0, a.CustomerFeeShare, 1e-9)
	})

	t.Run("zero fee percentage", func(t *testing.T) {
		a := AssessFees(200, PlatformFeeRules{}, cfg.VAT)
		assert.Equal(t, 0.0, a.PlatformFee)
		assert.Equal(t, 0.0, a.DriverFeeShare)
		assert.Equal(t, 10.0, a.VATAmount)
	})
}

func TestAdjustRoundTrip(t *testing.T) {
	rules := DefaultConfiguration().RoundTrip

	t.Run("free stay disabled", func(t *testing.T) {
		r := rules
		r.FreeStay.Enabled = false
		res := AdjustRoundTrip(100, TripRequest{DistanceKm: 30, RouteKind: RouteRoundTrip}, r)
		assert.Equal(t, 180.0, res.Subtotal)
		assert.Zero(t, res.FreeStayMinutes)
	})

	t.Run("alert disabled", func(t *testing.T) {
		r := rules
		r.RefreshmentAlert.Enabled = false
		res := AdjustRoundTrip(100, TripRequest{DistanceKm: 500, RouteKind: RouteRoundTrip}, r)
		assert.False(t, res.RefreshmentDue)
	})

	t.Run("distance threshold is inclusive", func(t *testing.T) {
		res := AdjustRoundTrip(100, TripRequest{DistanceKm: 150, RouteKind: RouteRoundTrip}, rules)
		assert.True(t, res.RefreshmentDue)
	})

	t.Run("one way passes through", func(t *testing.T) {
		res := AdjustRoundTrip(100, TripRequest{DistanceKm: 500, RouteKind: RouteOneWay}, rules)
		assert.Equal(t, RoundTripResult{Subtotal: 100}, res)
	})
}
