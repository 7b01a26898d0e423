package travelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmissionSegment is the simplified input form: one flown leg.
type EmissionSegment struct {
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	OperatingCarrier string `json:"operatingCarrierCode,omitempty"`
	FlightNumber     string `json:"flightNumber,omitempty"`
	DepartureDate    string `json:"departureDate"`
	Cabin            string `json:"cabin,omitempty"`
}

// EmissionsRequest accepts either raw provider offers or segments. Offers
// win when both are set.
type EmissionsRequest struct {
	FlightOffers []json.RawMessage
	Segments     []EmissionSegment
}

type CO2 struct {
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weightUnit"`
	Cabin      string  `json:"cabin,omitempty"`
}

type EmissionEstimate struct {
	SegmentID   string `json:"segmentId,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	CO2         CO2    `json:"co2"`
}

type EmissionsResult struct {
	Estimates   []EmissionEstimate
	TotalWeight float64
	WeightUnit  string
}

// EstimateEmissions asks the provider for CO2 estimates per segment.
func (c *Client) EstimateEmissions(ctx context.Context, requestID string, req EmissionsRequest) (*EmissionsResult, error) {
	data := map[string]any{"type": "co2-emissions"}
	if len(req.FlightOffers) > 0 {
		data["flightOffers"] = req.FlightOffers
	} else {
		data["segments"] = req.Segments
	}

	var resp Envelope[[]EmissionEstimate]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "emissions.estimate",
		Method:    http.MethodPost,
		Path:      "/v1/travel/co2-emissions",
		Body:      map[string]any{"data": data},
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate emissions: %w", err)
	}

	out := &EmissionsResult{Estimates: resp.Data, WeightUnit: "KG"}
	for _, e := range resp.Data {
		out.TotalWeight += normalizeKG(e.CO2)
	}
	return out, nil
}

func normalizeKG(c CO2) float64 {
	switch c.WeightUnit {
	case "G":
		return c.Weight / 1000
	case "T":
		return c.Weight * 1000
	default:
		return c.Weight
	}
}
