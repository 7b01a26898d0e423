package travelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type FlightSearchParams struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	Infants       int
	TravelClass   string
	NonStop       *bool
	CurrencyCode  string
	MaxPrice      int
	Max           int
}

// FlightOffers keeps offers raw: pricing and booking must send them back
// to the provider byte for byte.
type FlightOffers struct {
	Offers       []json.RawMessage
	Meta         *Meta
	Dictionaries map[string]json.RawMessage
}

// SearchFlightOffers runs a simple GET offer search.
func (c *Client) SearchFlightOffers(ctx context.Context, requestID string, params FlightSearchParams) (*FlightOffers, error) {
	query := map[string]any{
		"originLocationCode":      params.Origin,
		"destinationLocationCode": params.Destination,
		"departureDate":           params.DepartureDate,
		"returnDate":              params.ReturnDate,
		"adults":                  params.Adults,
		"travelClass":             params.TravelClass,
		"nonStop":                 params.NonStop,
		"currencyCode":            params.CurrencyCode,
	}
	if params.Children > 0 {
		query["children"] = params.Children
	}
	if params.Infants > 0 {
		query["infants"] = params.Infants
	}
	if params.MaxPrice > 0 {
		query["maxPrice"] = params.MaxPrice
	}
	if params.Max > 0 {
		query["max"] = params.Max
	}

	var resp Envelope[[]json.RawMessage]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "flights.search",
		Method:    http.MethodGet,
		Path:      "/v2/shopping/flight-offers",
		Query:     query,
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search flight offers: %w", err)
	}
	return &FlightOffers{Offers: resp.Data, Meta: resp.Meta, Dictionaries: resp.Dictionaries}, nil
}

type FlightPrice struct {
	Type         string            `json:"type,omitempty"`
	FlightOffers []json.RawMessage `json:"flightOffers"`
}

type PricedOffers struct {
	Pricing      FlightPrice
	Warnings     []ProviderIssue
	Dictionaries map[string]json.RawMessage
}

// PriceFlightOffers confirms availability and final price of offers.
func (c *Client) PriceFlightOffers(ctx context.Context, requestID string, offers []json.RawMessage) (*PricedOffers, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": offers,
		},
	}
	var resp Envelope[FlightPrice]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "flights.price",
		Method:    http.MethodPost,
		Path:      "/v1/shopping/flight-offers/pricing",
		Body:      body,
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to price flight offers: %w", err)
	}
	return &PricedOffers{Pricing: resp.Data, Warnings: resp.Warnings, Dictionaries: resp.Dictionaries}, nil
}
