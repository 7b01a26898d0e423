package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type flightSearchQuery struct {
	Origin        string `form:"origin" binding:"required,iata"`
	Destination   string `form:"destination" binding:"required,iata,nefield=Origin"`
	DepartureDate string `form:"departureDate" binding:"required,datetime=2006-01-02"`
	ReturnDate    string `form:"returnDate" binding:"omitempty,datetime=2006-01-02,notbefore=DepartureDate"`
	Adults        int    `form:"adults,default=1" binding:"min=1,max=9"`
	Children      int    `form:"children" binding:"omitempty,min=0,max=9"`
	Infants       int    `form:"infants" binding:"omitempty,min=0,max=9"`
	TravelClass   string `form:"travelClass" binding:"omitempty,oneof=ECONOMY PREMIUM_ECONOMY BUSINESS FIRST"`
	NonStop       *bool  `form:"nonStop"`
	CurrencyCode  string `form:"currencyCode" binding:"omitempty,len=3,uppercase"`
	MaxPrice      int    `form:"maxPrice" binding:"omitempty,min=1"`
	Max           int    `form:"max,default=10" binding:"min=1,max=250"`
}

type flightPriceBody struct {
	FlightOffers []json.RawMessage `json:"flightOffers" binding:"required,min=1,max=6,dive,jsonobject"`
}

// SearchFlights runs an offer search between two airports.
func (r *Router) SearchFlights(c *gin.Context) {
	var q flightSearchQuery
	if verr := validation.BindQuery(c, &q); verr != nil {
		r.invalid(c, verr)
		return
	}

	offers, err := r.client.SearchFlightOffers(c.Request.Context(), middleware.GetRequestID(c), travelclient.FlightSearchParams{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		ReturnDate:    q.ReturnDate,
		Adults:        q.Adults,
		Children:      q.Children,
		Infants:       q.Infants,
		TravelClass:   q.TravelClass,
		NonStop:       q.NonStop,
		CurrencyCode:  q.CurrencyCode,
		MaxPrice:      q.MaxPrice,
		Max:           q.Max,
	})
	if err != nil {
		r.fail(c, err)
		return
	}

	data := offers.Offers
	if data == nil {
		data = []json.RawMessage{}
	}
	r.ok(c, gin.H{
		"data":         data,
		"meta":         gin.H{"count": len(data)},
		"dictionaries": offers.Dictionaries,
	})
}

// PriceFlights confirms the final price of offers returned by a search.
func (r *Router) PriceFlights(c *gin.Context) {
	var body flightPriceBody
	if verr := validation.BindJSON(c, &body); verr != nil {
		r.invalid(c, verr)
		return
	}

	priced, err := r.client.PriceFlightOffers(c.Request.Context(), middleware.GetRequestID(c), body.FlightOffers)
	if err != nil {
		r.fail(c, err)
		return
	}

	resp := gin.H{
		"data":         priced.Pricing.FlightOffers,
		"meta":         gin.H{"count": len(priced.Pricing.FlightOffers)},
		"dictionaries": priced.Dictionaries,
	}
	if len(priced.Warnings) > 0 {
		resp["warnings"] = priced.Warnings
	}
	r.ok(c, resp)
}
