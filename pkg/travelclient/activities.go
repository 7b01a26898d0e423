package travelclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type Activity struct {
	ID               string   `json:"id"`
	Type             string   `json:"type,omitempty"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Description      string   `json:"description,omitempty"`
	GeoCode          *GeoCode `json:"geoCode,omitempty"`
	Rating           string   `json:"rating,omitempty"`
	Price            *Price   `json:"price,omitempty"`
	Pictures         []string `json:"pictures,omitempty"`
	BookingLink      string   `json:"bookingLink,omitempty"`
	MinimumDuration  string   `json:"minimumDuration,omitempty"`
}

type ActivitySearchParams struct {
	Latitude  float64
	Longitude float64
	Radius    *int
}

// SearchActivities lists tours and activities around a point.
func (c *Client) SearchActivities(ctx context.Context, requestID string, params ActivitySearchParams) ([]Activity, error) {
	var resp Envelope[[]Activity]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "activities.search",
		Method:    http.MethodGet,
		Path:      "/v1/shopping/activities",
		Query: map[string]any{
			"latitude":  params.Latitude,
			"longitude": params.Longitude,
			"radius":    params.Radius,
		},
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	return resp.Data, nil
}

// GetActivity fetches a single activity by id.
func (c *Client) GetActivity(ctx context.Context, requestID, id string) (*Activity, error) {
	var resp Envelope[Activity]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "activities.get",
		Method:    http.MethodGet,
		Path:      "/v1/shopping/activities/" + url.PathEscape(id),
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &resp.Data, nil
}
