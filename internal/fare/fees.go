package fare

// FeeAssessment is the platform fee and VAT on a fee base
type FeeAssessment struct {
	PlatformFee      float64
	DriverFeeShare   float64
	CustomerFeeShare float64
	VATAmount        float64
}

// AssessFees computes the platform fee on feeBase, splits it between driver
// and customer in proportion to their share percentages, then charges VAT on
// the fee inclusive amount.
func AssessFees(feeBase float64, fee PlatformFeeRules, vat VATRules) FeeAssessment {
	var a FeeAssessment

	a.PlatformFee = feeBase * fee.Percentage / 100
	if fee.Percentage > 0 {
		a.DriverFeeShare = a.PlatformFee * fee.DriverSharePct / fee.Percentage
		a.CustomerFeeShare = a.PlatformFee * fee.CustomerSharePct / fee.Percentage
	}

	if vat.Enabled {
		a.VATAmount = (feeBase + a.PlatformFee) * vat.Percentage / 100
	}

	return a
}
