package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleQuote struct {
	Currency    string  `json:"currency" validate:"required,currency_code"`
	Service     string  `json:"service" validate:"required,slug"`
	Route       string  `json:"route" validate:"omitempty,route_kind"`
	CancelledBy string  `json:"cancelled_by" validate:"omitempty,cancelled_by"`
	Progress    float64 `json:"progress" validate:"fraction"`
	Distance    float64 `json:"distance" validate:"gte=0"`
	Nested      struct {
		Rate float64 `json:"rate" validate:"gte=0"`
	} `json:"nested"`
}

func validSample() sampleQuote {
	return sampleQuote{
		Currency:    "AED",
		Service:     "car_cab",
		Route:       "round_trip",
		CancelledBy: "customer",
		Progress:    0.5,
		Distance:    12,
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	require.NoError(t, ValidateStruct(validSample()))
}

func TestValidateStruct_CustomRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sampleQuote)
		field  string
	}{
		{"lower case currency", func(s *sampleQuote) { s.Currency = "aed" }, "currency"},
		{"four letter currency", func(s *sampleQuote) { s.Currency = "AEDX" }, "currency"},
		{"service with dash", func(s *sampleQuote) { s.Service = "car-cab" }, "service"},
		{"service starting with digit", func(s *sampleQuote) { s.Service = "4x4" }, "service"},
		{"unknown route", func(s *sampleQuote) { s.Route = "circular" }, "route"},
		{"route is case sensitive", func(s *sampleQuote) { s.Route = "ONE_WAY" }, "route"},
		{"unknown canceller", func(s *sampleQuote) { s.CancelledBy = "driver" }, "cancelled_by"},
		{"progress above one", func(s *sampleQuote) { s.Progress = 1.01 }, "progress"},
		{"negative progress", func(s *sampleQuote) { s.Progress = -0.1 }, "progress"},
		{"negative distance", func(s *sampleQuote) { s.Distance = -1 }, "distance"},
		{"nested negative rate", func(s *sampleQuote) { s.Nested.Rate = -2 }, "nested.rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			err := ValidateStruct(s)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tt.field}, ve.Fields())
		})
	}
}

func TestValidateStruct_EmptyOptionalFields(t *testing.T) {
	s := validSample()
	s.Route = ""
	s.CancelledBy = ""
	assert.NoError(t, ValidateStruct(s))
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{}
	assert.False(t, ve.HasErrors())

	ve.AddError("distance_km", "must be greater than or equal to 0")
	ve.AddError("currency", "is required")
	ve.AddError("currency", "ignored second message")

	assert.True(t, ve.HasErrors())
	assert.Equal(t, []string{"currency", "distance_km"}, ve.Fields())
	assert.Equal(t, "is required", ve.Errors["currency"])

	msg := ve.Error()
	assert.True(t, strings.HasPrefix(msg, "validation failed: "))
	assert.Less(t, strings.Index(msg, "currency"), strings.Index(msg, "distance_km"))
}

func TestValidateStruct_NonStruct(t *testing.T) {
	err := ValidateStruct(42)
	require.Error(t, err)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}
