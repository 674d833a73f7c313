package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// ConfigUpdatedData is emitted when an admin patch produces a new active version.
type ConfigUpdatedData struct {
	VersionID         uuid.UUID  `json:"version_id"`
	Version           int        `json:"version"`
	PreviousVersionID *uuid.UUID `json:"previous_version_id,omitempty"`
	ChangedSections   []string   `json:"changed_sections"`
	Actor             string     `json:"actor"`
	Reason            string     `json:"reason,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ConfigActivatedData is emitted when an existing version is re-activated (rollback or roll-forward).
type ConfigActivatedData struct {
	VersionID         uuid.UUID  `json:"version_id"`
	Version           int        `json:"version"`
	PreviousVersionID *uuid.UUID `json:"previous_version_id,omitempty"`
	Actor             string     `json:"actor"`
	ActivatedAt       time.Time  `json:"activated_at"`
}

// FareQuotedData is emitted for every successfully computed estimate.
type FareQuotedData struct {
	QuoteID       uuid.UUID `json:"quote_id"`
	ServiceType   string    `json:"service_type"`
	Variant       string    `json:"variant,omitempty"`
	DistanceKm    float64   `json:"distance_km"`
	TotalFare     float64   `json:"total_fare"`
	Currency      string    `json:"currency"`
	ConfigVersion string    `json:"config_version"`
	RateSource    string    `json:"rate_source"`
	SurgeApplied  bool      `json:"surge_applied"`
	NightApplied  bool      `json:"night_applied"`
	Cancelled     bool      `json:"cancelled"`
	QuotedAt      time.Time `json:"quoted_at"`
}
