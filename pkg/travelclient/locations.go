package travelclient

import (
	"context"
	"fmt"
	"net/http"
)

type Location struct {
	Type     string   `json:"type,omitempty"`
	SubType  string   `json:"subType"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Detailed string   `json:"detailedName,omitempty"`
	IATACode string   `json:"iataCode"`
	GeoCode  *GeoCode `json:"geoCode,omitempty"`
	Address  *struct {
		CityName    string `json:"cityName,omitempty"`
		CityCode    string `json:"cityCode,omitempty"`
		CountryName string `json:"countryName,omitempty"`
		CountryCode string `json:"countryCode,omitempty"`
	} `json:"address,omitempty"`
}

type LocationSearchParams struct {
	Keyword     string
	SubTypes    []string
	CountryCode string
	Limit       int
	Offset      int
}

// SearchLocations looks up airports and cities by keyword.
func (c *Client) SearchLocations(ctx context.Context, requestID string, params LocationSearchParams) ([]Location, *Meta, error) {
	subTypes := params.SubTypes
	if len(subTypes) == 0 {
		subTypes = []string{"AIRPORT", "CITY"}
	}
	query := map[string]any{
		"keyword":     params.Keyword,
		"subType":     subTypes,
		"countryCode": params.CountryCode,
	}
	if params.Limit > 0 {
		query["page[limit]"] = params.Limit
	}
	if params.Offset > 0 {
		query["page[offset]"] = params.Offset
	}

	var resp Envelope[[]Location]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "locations.search",
		Method:    http.MethodGet,
		Path:      "/v1/reference-data/locations",
		Query:     query,
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search locations: %w", err)
	}
	return resp.Data, resp.Meta, nil
}
