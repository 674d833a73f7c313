package fare

// Compute prices one trip against one configuration snapshot. It performs no
// I/O, keeps no state and never mutates its inputs, so concurrent calls need
// no coordination. Every monetary field is rounded once, after summation.
func Compute(req TripRequest, cfg *PricingConfiguration) (*FareBreakdown, error) {
	if cfg == nil {
		return nil, ErrConfigurationMissing
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := &FareBreakdown{
		Currency:      cfg.Currency,
		ConfigVersion: cfg.Version,
		Alerts:        []string{},
	}

	// Rate
	rate := ResolveRate(req.ServiceType, req.Variant, cfg)
	b.BaseFare = rate.BaseFare
	b.Details.RateSource = rate.Source
	b.Details.FallbackReason = rate.FallbackReason
	b.Details.FixedPrice = rate.IsFixedPrice

	// Distance
	if !rate.IsFixedPrice {
		b.DistanceFare, b.Details.CityWiseApplied = DistanceFare(
			req.DistanceKm, cfg.Distance.CoverageKm, rate.PerKmRate, cfg.Distance.CityWise,
		)
	}

	// Floor
	subtotal, floored := ApplyMinimumFare(b.BaseFare, b.DistanceFare, cfg.MinimumFareFor(req.ServiceType))
	b.Details.MinimumFareApplied = floored

	// Round trip
	rt := AdjustRoundTrip(subtotal, req, cfg.RoundTrip)
	subtotal = rt.Subtotal
	b.Details.RoundTripApplied = rt.Applied
	b.Details.RoundTripMultiplier = rt.Multiplier
	b.Details.FreeStayMinutes = rt.FreeStayMinutes
	if rt.RefreshmentDue {
		b.Alerts = append(b.Alerts, AlertRefreshmentRecommended)
	}
	b.Subtotal = subtotal

	// Surcharges, all on the same post round trip subtotal
	night := NightCharge(subtotal, req, cfg.Night)
	b.NightCharge = night.Charge
	b.Details.NightApplied = night.Applied
	b.Details.NightMethod = night.Method

	surge := SurgeCharge(subtotal, req.demandRatio(), cfg.Surge)
	b.SurgeCharge = surge.Charge
	b.Details.SurgeTier = surge.Tier

	waiting := WaitingCharge(req.WaitingMinutes, cfg.Waiting)
	b.WaitingCharge = waiting.Charge
	b.Details.BillableWaitingMin = waiting.BillableMinutes
	b.Details.WaitingCapped = waiting.Capped

	cancellation := CancellationCharge(req, cfg.Cancellation)
	b.CancellationCharge = cancellation.Charge
	b.Details.CancellationTier = cancellation.Tier

	// Fees
	feeBase := subtotal + b.NightCharge + b.SurgeCharge + b.WaitingCharge
	fees := AssessFees(feeBase, cfg.PlatformFee, cfg.VAT)
	b.PlatformFee = fees.PlatformFee
	b.DriverFeeShare = fees.DriverFeeShare
	b.CustomerFeeShare = fees.CustomerFeeShare
	b.VATAmount = fees.VATAmount

	// Aggregate
	b.TotalFare = feeBase + b.PlatformFee + b.VATAmount + b.CancellationCharge
	b.roundValues()

	return b, nil
}
