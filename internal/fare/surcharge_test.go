package fare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInNightWindow(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		hour     int
		expected bool
	}{
		{"wrapping window, late evening", 22, 6, 23, true},
		{"wrapping window, early morning", 22, 6, 0, true},
		{"wrapping window, end hour excluded", 22, 6, 6, false},
		{"wrapping window, afternoon", 22, 6, 15, false},
		{"same day window, inside", 9, 17, 12, true},
		{"same day window, start included", 9, 17, 9, true},
		{"same day window, end excluded", 9, 17, 17, false},
		{"equal hours make an empty window", 0, 0, 0, false},
		{"equal hours never match", 5, 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := NightRules{Enabled: true, StartHour: tt.start, EndHour: tt.end}
			at := time.Date(2026, 1, 2, tt.hour, 0, 0, 0, time.UTC)
			assert.Equal(t, tt.expected, InNightWindow(at, rules))
		})
	}
}

func TestNightCharge(t *testing.T) {
	rules := DefaultConfiguration().Night

	tests := []struct {
		name     string
		subtotal float64
		req      TripRequest
		expected NightResult
	}{
		{
			name:     "fixed amount wins on small fares",
			subtotal: 30,
			req:      TripRequest{NightOverride: true},
			expected: NightResult{Charge: 10, Applied: true, Method: NightMethodFixed},
		},
		{
			name:     "tie goes to fixed",
			subtotal: 40,
			req:      TripRequest{NightOverride: true},
			expected: NightResult{Charge: 10, Applied: true, Method: NightMethodFixed},
		},
		{
			name:     "multiplier wins on large fares",
			subtotal: 200,
			req:      TripRequest{NightOverride: true},
			expected: NightResult{Charge: 50, Applied: true, Method: NightMethodMultiplier},
		},
		{
			name:     "daytime trip without override",
			subtotal: 200,
			req:      TripRequest{TripTime: time.Date(2026, 1, 2, 14, 0, 0, 0, time.UTC)},
			expected: NightResult{},
		},
		{
			name:     "zero trip time without override",
			subtotal: 200,
			req:      TripRequest{},
			expected: NightResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NightCharge(tt.subtotal, tt.req, rules))
		})
	}
}

func TestMatchSurgeTier(t *testing.T) {
	rules := DefaultConfiguration().Surge

	tests := []struct {
		name       string
		ratio      float64
		matched    bool
		multiplier float64
	}{
		{"no demand pressure", 1, false, 0},
		{"below first tier", 1.9, false, 0},
		{"exactly first tier", 2, true, 1.5},
		{"between tiers", 2.7, true, 1.5},
		{"exactly top tier", 3, true, 2.0},
		{"far above top tier", 12, true, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := MatchSurgeTier(tt.ratio, rules)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.multiplier, tier.Multiplier)
			}
		})
	}
}

func TestMatchSurgeTier_Monotonic(t *testing.T) {
	rules := SurgeRules{
		Enabled: true,
		Tiers: []SurgeTier{
			{DemandRatio: 4, Multiplier: 2.5},
			{DemandRatio: 1.5, Multiplier: 1.2},
			{DemandRatio: 3, Multiplier: 2.0},
			{DemandRatio: 2, Multiplier: 1.5},
		},
	}

	previous := 1.0
	for ratio := 1.0; ratio <= 6; ratio += 0.05 {
		multiplier := 1.0
		if tier, ok := MatchSurgeTier(ratio, rules); ok {
			multiplier = tier.Multiplier
		}
		assert.GreaterOrEqual(t, multiplier, previous, "ratio %.2f", ratio)
		previous = multiplier
	}
}

func TestMatchSurgeTier_EqualThresholdsKeepLargerMultiplier(t *testing.T) {
	rules := SurgeRules{
		Enabled: true,
		Tiers: []SurgeTier{
			{DemandRatio: 2, Multiplier: 1.4},
			{DemandRatio: 2, Multiplier: 1.7},
		},
	}

	tier, ok := MatchSurgeTier(2.5, rules)
	require.True(t, ok)
	assert.Equal(t, 1.7, tier.Multiplier)
}

func TestSurgeCharge(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rules := DefaultConfiguration().Surge
		rules.Enabled = false
		assert.Equal(t, SurgeResult{}, SurgeCharge(100, 5, rules))
	})

	t.Run("no tiers configured", func(t *testing.T) {
		assert.Equal(t, SurgeResult{}, SurgeCharge(100, 5, SurgeRules{Enabled: true}))
	})

	t.Run("does not reorder configured tiers", func(t *testing.T) {
		rules := DefaultConfiguration().Surge
		before := append([]SurgeTier(nil), rules.Tiers...)

		result := SurgeCharge(100, 3.5, rules)
		assert.Equal(t, 100.0, result.Charge)
		assert.Equal(t, before, rules.Tiers)
	})
}

func TestWaitingCharge(t *testing.T) {
	rules := DefaultConfiguration().Waiting

	tests := []struct {
		name     string
		minutes  float64
		rules    WaitingRules
		expected WaitingResult
	}{
		{"no waiting", 0, rules, WaitingResult{}},
		{"within free allowance", 5, rules, WaitingResult{}},
		{"just past allowance", 7, rules, WaitingResult{Charge: 4, BillableMinutes: 2}},
		{"reaches cap exactly", 15, rules, WaitingResult{Charge: 20, BillableMinutes: 10}},
		{"past cap", 40, rules, WaitingResult{Charge: 20, BillableMinutes: 35, Capped: true}},
		{
			"zero cap means uncapped", 40,
			WaitingRules{FreeMinutes: 5, PerMinuteRate: 2},
			WaitingResult{Charge: 70, BillableMinutes: 35},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WaitingCharge(tt.minutes, tt.rules))
		})
	}
}

func TestCancellationCharge(t *testing.T) {
	rules := DefaultConfiguration().Cancellation

	tests := []struct {
		name     string
		req      TripRequest
		expected CancellationResult
	}{
		{"not cancelled", TripRequest{TripProgress: 0.9, Arrived: true}, CancellationResult{}},
		{"provider cancelled after arrival", TripRequest{Cancelled: true, Arrived: true, CancelledBy: CancelledByProvider}, CancellationResult{Tier: CancellationTierProvider}},
		{"arrived", TripRequest{Cancelled: true, Arrived: true}, CancellationResult{Charge: 30, Tier: CancellationTierAfterArrival}},
		{"arrival outranks progress", TripRequest{Cancelled: true, Arrived: true, TripProgress: 0.3}, CancellationResult{Charge: 30, Tier: CancellationTierAfterArrival}},
		{"half way", TripRequest{Cancelled: true, TripProgress: 0.5}, CancellationResult{Charge: 20, Tier: CancellationTierAfter50}},
		{"quarter way", TripRequest{Cancelled: true, TripProgress: 0.25}, CancellationResult{Charge: 10, Tier: CancellationTierAfter25}},
		{"just below quarter", TripRequest{Cancelled: true, TripProgress: 0.2499}, CancellationResult{Charge: 0, Tier: CancellationTierBeforeArrival}},
		{"system cancellation is charged", TripRequest{Cancelled: true, CancelledBy: CancelledBySystem, TripProgress: 0.6}, CancellationResult{Charge: 20, Tier: CancellationTierAfter50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CancellationCharge(tt.req, rules))
		})
	}
}
