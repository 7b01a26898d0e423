package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type emissionSegment struct {
	Origin           string `json:"origin" binding:"required,iata"`
	Destination      string `json:"destination" binding:"required,iata,nefield=Origin"`
	OperatingCarrier string `json:"operatingCarrier" binding:"omitempty,len=2,alphanum,uppercase"`
	FlightNumber     string `json:"flightNumber" binding:"omitempty,numeric,max=4"`
	DepartureDate    string `json:"departureDate" binding:"required,datetime=2006-01-02"`
	Cabin            string `json:"cabin" binding:"omitempty,oneof=ECONOMY PREMIUM_ECONOMY BUSINESS FIRST"`
}

// Exactly one input form is needed; when both arrive the raw offers win.
type emissionsBody struct {
	FlightOffers []json.RawMessage `json:"flightOffers" binding:"required_without=Segments,omitempty,max=6,dive,jsonobject"`
	Segments     []emissionSegment `json:"segments" binding:"required_without=FlightOffers,omitempty,max=16,dive"`
}

// UnmarshalJSON treats an empty list as an absent input form.
func (b *emissionsBody) UnmarshalJSON(data []byte) error {
	type plain emissionsBody
	if err := json.Unmarshal(data, (*plain)(b)); err != nil {
		return err
	}
	if len(b.FlightOffers) == 0 {
		b.FlightOffers = nil
	}
	if len(b.Segments) == 0 {
		b.Segments = nil
	}
	return nil
}

// EstimateEmissions returns CO2 estimates per segment and a total in KG.
func (r *Router) EstimateEmissions(c *gin.Context) {
	var body emissionsBody
	if verr := validation.BindJSON(c, &body); verr != nil {
		r.invalid(c, verr)
		return
	}

	req := travelclient.EmissionsRequest{FlightOffers: body.FlightOffers}
	if len(req.FlightOffers) == 0 {
		for _, s := range body.Segments {
			req.Segments = append(req.Segments, travelclient.EmissionSegment{
				Origin:           s.Origin,
				Destination:      s.Destination,
				OperatingCarrier: s.OperatingCarrier,
				FlightNumber:     s.FlightNumber,
				DepartureDate:    s.DepartureDate,
				Cabin:            s.Cabin,
			})
		}
	}

	result, err := r.client.EstimateEmissions(c.Request.Context(), middleware.GetRequestID(c), req)
	if err != nil {
		r.fail(c, err)
		return
	}

	estimates := result.Estimates
	if estimates == nil {
		estimates = []travelclient.EmissionEstimate{}
	}
	r.ok(c, gin.H{
		"data": gin.H{
			"estimates": estimates,
			"total": gin.H{
				"weight":     result.TotalWeight,
				"weightUnit": result.WeightUnit,
			},
		},
		"meta": gin.H{"count": len(estimates)},
	})
}
