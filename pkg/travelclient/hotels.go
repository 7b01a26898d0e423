package travelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type Distance struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Hotel struct {
	HotelID     string    `json:"hotelId"`
	ChainCode   string    `json:"chainCode,omitempty"`
	Name        string    `json:"name"`
	IATACode    string    `json:"iataCode,omitempty"`
	Rating      int       `json:"rating,omitempty"`
	GeoCode     *GeoCode  `json:"geoCode,omitempty"`
	Distance    *Distance `json:"distance,omitempty"`
	CountryCode string    `json:"countryCode,omitempty"`
}

type HotelListParams struct {
	CityCode    string
	Radius      int
	RadiusUnit  string
	Ratings     []int
	Amenities   []string
	HotelSource string
}

// ListHotelsByCity lists hotels near a city code.
func (c *Client) ListHotelsByCity(ctx context.Context, requestID string, params HotelListParams) ([]Hotel, error) {
	query := map[string]any{
		"cityCode":    params.CityCode,
		"radiusUnit":  params.RadiusUnit,
		"ratings":     params.Ratings,
		"amenities":   params.Amenities,
		"hotelSource": params.HotelSource,
	}
	if params.Radius > 0 {
		query["radius"] = params.Radius
	}

	var resp Envelope[[]Hotel]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "hotels.list",
		Method:    http.MethodGet,
		Path:      "/v1/reference-data/locations/hotels/by-city",
		Query:     query,
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	return resp.Data, nil
}

type HotelOfferParams struct {
	HotelIDs     []string
	Adults       int
	CheckInDate  string
	CheckOutDate string
	RoomQuantity int
	Currency     string
	BestRateOnly *bool
}

// SearchHotelOffers returns available offers per hotel, raw.
func (c *Client) SearchHotelOffers(ctx context.Context, requestID string, params HotelOfferParams) ([]json.RawMessage, error) {
	query := map[string]any{
		"hotelIds":     params.HotelIDs,
		"checkInDate":  params.CheckInDate,
		"checkOutDate": params.CheckOutDate,
		"currency":     params.Currency,
		"bestRateOnly": params.BestRateOnly,
	}
	if params.Adults > 0 {
		query["adults"] = params.Adults
	}
	if params.RoomQuantity > 0 {
		query["roomQuantity"] = params.RoomQuantity
	}

	var resp Envelope[[]json.RawMessage]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "hotels.offers",
		Method:    http.MethodGet,
		Path:      "/v3/shopping/hotel-offers",
		Query:     query,
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search hotel offers: %w", err)
	}
	return resp.Data, nil
}
