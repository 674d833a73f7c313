package pricing

import (
	"encoding/json"
	"testing"

	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRequestToTripRequest(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantProgress float64
		wantArrived  bool
		wantErrField string
	}{
		{name: "absent", body: `{"service_type":"car_cab"}`},
		{name: "null", body: `{"service_type":"car_cab","trip_progress":null}`},
		{name: "number", body: `{"service_type":"car_cab","trip_progress":0.6}`, wantProgress: 0.6},
		{name: "fraction string", body: `{"service_type":"car_cab","trip_progress":"0.3"}`, wantProgress: 0.3},
		{name: "percentage", body: `{"service_type":"car_cab","trip_progress":"50%"}`, wantProgress: 0.5},
		{name: "arrived", body: `{"service_type":"car_cab","trip_progress":"arrived"}`, wantProgress: 1, wantArrived: true},
		{name: "garbage", body: `{"service_type":"car_cab","trip_progress":"soon"}`, wantErrField: "trip_progress"},
		{name: "object", body: `{"service_type":"car_cab","trip_progress":{}}`, wantErrField: "trip_progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req EstimateRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			trip, err := req.ToTripRequest()
			if tt.wantErrField != "" {
				var inputErr *fare.InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, tt.wantErrField, inputErr.Field)
				assert.ErrorIs(t, err, fare.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, fare.ServiceCarCab, trip.ServiceType)
			assert.InDelta(t, tt.wantProgress, trip.TripProgress, 1e-9)
			assert.Equal(t, tt.wantArrived, trip.Arrived)
		})
	}
}

func TestEstimateRequestKeepsExplicitArrived(t *testing.T) {
	var req EstimateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"service_type":"bike","arrived":true,"trip_progress":"25%"}`), &req))

	trip, err := req.ToTripRequest()
	require.NoError(t, err)
	assert.True(t, trip.Arrived)
	assert.Equal(t, 0.25, trip.TripProgress)
}

func TestBatchEstimateRequestDecodesEmbeddedTrip(t *testing.T) {
	var req BatchEstimateRequest
	body := `{"service_type":"car_cab","distance_km":12,"route_kind":"round_trip","variants":["economy","premium"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	trip, err := req.ToTripRequest()
	require.NoError(t, err)
	assert.Equal(t, 12.0, trip.DistanceKm)
	assert.Equal(t, fare.RouteRoundTrip, trip.RouteKind)
	assert.Equal(t, []string{"economy", "premium"}, req.Variants)
}

func TestEstimateResponseInlinesBreakdown(t *testing.T) {
	resp := EstimateResponse{FareBreakdown: &fare.FareBreakdown{TotalFare: 42.5, Currency: "AED"}}
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 42.5, decoded["total_fare"])
	assert.Equal(t, "AED", decoded["currency"])
	assert.Contains(t, decoded, "quote_id")
}

func TestVersionLabel(t *testing.T) {
	assert.Equal(t, "v1", VersionLabel(1))
	assert.Equal(t, "v27", VersionLabel(27))
}
