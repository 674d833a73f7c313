package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fare-engine/internal/fare"
)

var (
	// ErrVersionNotFound is returned when a configuration version does not exist
	ErrVersionNotFound = errors.New("pricing version not found")
	// ErrVersionConflict is returned when the active version changed underneath an update
	ErrVersionConflict = errors.New("active pricing version changed concurrently")
)

// Audit actions
const (
	AuditActionCreated   = "created"
	AuditActionActivated = "activated"
)

// ConfigVersion is one stored, immutable pricing configuration
type ConfigVersion struct {
	ID          uuid.UUID                  `json:"id"`
	Version     int                        `json:"version"`
	Document    *fare.PricingConfiguration `json:"document,omitempty"`
	IsActive    bool                       `json:"is_active"`
	CreatedBy   string                     `json:"created_by"`
	Reason      string                     `json:"reason,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	ActivatedAt *time.Time                 `json:"activated_at,omitempty"`
}

// VersionLabel is the identifier stamped on every breakdown priced with version n
func VersionLabel(n int) string {
	return "v" + strconv.Itoa(n)
}

// AuditEntry records who changed the active configuration and how
type AuditEntry struct {
	ID                uuid.UUID       `json:"id"`
	VersionID         uuid.UUID       `json:"version_id"`
	Version           int             `json:"version"`
	Action            string          `json:"action"`
	Actor             string          `json:"actor"`
	Reason            string          `json:"reason,omitempty"`
	Patch             json.RawMessage `json:"patch,omitempty"`
	PreviousVersionID *uuid.UUID      `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// EstimateRequest is the estimate payload. trip_progress accepts a number or
// a string such as "0.5", "50%" or "arrived".
type EstimateRequest struct {
	fare.TripRequest
	TripProgress json.RawMessage `json:"trip_progress,omitempty"`
}

// ToTripRequest resolves the loosely typed progress into the engine input
func (r EstimateRequest) ToTripRequest() (fare.TripRequest, error) {
	trip := r.TripRequest
	raw := bytes.TrimSpace(r.TripProgress)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return trip, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return trip, &fare.InputError{Field: "trip_progress", Reason: "must be a number or a string"}
		}
		progress, arrived, err := fare.ParseTripProgress(s)
		if err != nil {
			return trip, err
		}
		trip.TripProgress = progress
		trip.Arrived = trip.Arrived || arrived
		return trip, nil
	}

	var progress float64
	if err := json.Unmarshal(raw, &progress); err != nil {
		return trip, &fare.InputError{Field: "trip_progress", Reason: "must be a number or a string"}
	}
	trip.TripProgress = progress
	return trip, nil
}

// EstimateResponse is a priced trip
type EstimateResponse struct {
	QuoteID uuid.UUID `json:"quote_id"`
	*fare.FareBreakdown
}

// BatchEstimateRequest prices one trip across several variants. An empty
// variant list quotes every variant configured for the service type.
type BatchEstimateRequest struct {
	EstimateRequest
	Variants []string `json:"variants" binding:"max=20"`
}

// VariantQuote is one entry of a batch estimate
type VariantQuote struct {
	Variant string `json:"variant"`
	*fare.FareBreakdown
}

// BatchEstimateResponse holds quotes that all share one configuration version
type BatchEstimateResponse struct {
	ServiceType   fare.ServiceType `json:"service_type"`
	Currency      string           `json:"currency"`
	ConfigVersion string           `json:"config_version"`
	Quotes        []VariantQuote   `json:"quotes"`
}

// ActivateRequest is the optional body of an activation
type ActivateRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
