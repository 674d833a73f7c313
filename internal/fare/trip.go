package fare

import (
	"time"

	"github.com/richxcame/fare-engine/pkg/validation"
)

// RouteKind distinguishes single and return journeys
type RouteKind string

// Route kinds
const (
	RouteOneWay    RouteKind = "one_way"
	RouteRoundTrip RouteKind = "round_trip"
)

// CancelledBy identifies who cancelled a trip
type CancelledBy string

// Cancellation initiators
const (
	CancelledByCustomer CancelledBy = "customer"
	CancelledByProvider CancelledBy = "provider"
	CancelledBySystem   CancelledBy = "system"
)

// TripRequest is the typed input of one fare computation.
//
// Optional fields default as follows: RouteKind to one_way, DemandRatio 0 to
// 1 (no surge), a zero TripTime leaves the night window to NightOverride, and
// an empty CancelledBy on a cancelled trip counts as the customer.
type TripRequest struct {
	ServiceType          ServiceType `json:"service_type" validate:"required,slug"`
	Variant              string      `json:"variant,omitempty" validate:"omitempty,slug"`
	DistanceKm           float64     `json:"distance_km" validate:"gte=0"`
	RouteKind            RouteKind   `json:"route_kind,omitempty" validate:"omitempty,route_kind"`
	DemandRatio          float64     `json:"demand_ratio,omitempty" validate:"omitempty,gte=1"`
	WaitingMinutes       float64     `json:"waiting_minutes,omitempty" validate:"gte=0"`
	TripProgress         float64     `json:"trip_progress,omitempty" validate:"fraction"`
	Arrived              bool        `json:"arrived,omitempty"`
	EstimatedDurationMin float64     `json:"estimated_duration_min,omitempty" validate:"gte=0"`
	NightOverride        bool        `json:"night_override,omitempty"`
	TripTime             time.Time   `json:"trip_time,omitempty"`
	Cancelled            bool        `json:"cancelled,omitempty"`
	CancelledBy          CancelledBy `json:"cancelled_by,omitempty" validate:"omitempty,cancelled_by"`
	CancellationReason   string      `json:"cancellation_reason,omitempty" validate:"max=500"`
}

// Validate rejects requests the pipeline must never see
func (r TripRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return inputErrorFrom(err)
	}
	return nil
}

func (r TripRequest) isRoundTrip() bool {
	return r.RouteKind == RouteRoundTrip
}

func (r TripRequest) demandRatio() float64 {
	if r.DemandRatio == 0 {
		return 1
	}
	return r.DemandRatio
}

func (r TripRequest) cancelledBy() CancelledBy {
	if r.CancelledBy == "" {
		return CancelledByCustomer
	}
	return r.CancelledBy
}
