package travelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type TravelerName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Phone struct {
	DeviceType         string `json:"deviceType,omitempty"`
	CountryCallingCode string `json:"countryCallingCode"`
	Number             string `json:"number"`
}

type TravelerContact struct {
	EmailAddress string  `json:"emailAddress,omitempty"`
	Phones       []Phone `json:"phones,omitempty"`
}

type Traveler struct {
	ID          string           `json:"id"`
	DateOfBirth string           `json:"dateOfBirth"`
	Gender      string           `json:"gender,omitempty"`
	Name        TravelerName     `json:"name"`
	Contact     *TravelerContact `json:"contact,omitempty"`
}

type FlightOrderRequest struct {
	FlightOffers []json.RawMessage
	Travelers    []Traveler
	Remarks      json.RawMessage
	Contacts     json.RawMessage
}

type AssociatedRecord struct {
	Reference        string `json:"reference"`
	CreationDate     string `json:"creationDate,omitempty"`
	OriginSystemCode string `json:"originSystemCode,omitempty"`
	FlightOfferID    string `json:"flightOfferId,omitempty"`
}

type FlightOrder struct {
	Type              string             `json:"type,omitempty"`
	ID                string             `json:"id"`
	QueuingOfficeID   string             `json:"queuingOfficeId,omitempty"`
	AssociatedRecords []AssociatedRecord `json:"associatedRecords,omitempty"`
	FlightOffers      []json.RawMessage  `json:"flightOffers,omitempty"`
	Travelers         []Traveler         `json:"travelers,omitempty"`
}

// CreateFlightOrder books priced offers for the given travelers.
func (c *Client) CreateFlightOrder(ctx context.Context, requestID string, req FlightOrderRequest) (*FlightOrder, error) {
	data := map[string]any{
		"type":         "flight-order",
		"flightOffers": req.FlightOffers,
		"travelers":    req.Travelers,
	}
	if len(req.Remarks) > 0 {
		data["remarks"] = req.Remarks
	}
	if len(req.Contacts) > 0 {
		data["contacts"] = req.Contacts
	}

	var resp Envelope[FlightOrder]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "orders.create",
		Method:    http.MethodPost,
		Path:      "/v1/booking/flight-orders",
		Body:      map[string]any{"data": data},
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create flight order: %w", err)
	}
	return &resp.Data, nil
}

// GetFlightOrder retrieves a booked order.
func (c *Client) GetFlightOrder(ctx context.Context, requestID, id string) (*FlightOrder, error) {
	var resp Envelope[FlightOrder]
	err := c.Call(ctx, UpstreamRequest{
		Operation: "orders.get",
		Method:    http.MethodGet,
		Path:      "/v1/booking/flight-orders/" + url.PathEscape(id),
		RequestID: requestID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight order: %w", err)
	}
	return &resp.Data, nil
}

// CancelFlightOrder deletes an order. The provider answers 204 on success.
func (c *Client) CancelFlightOrder(ctx context.Context, requestID, id string) error {
	err := c.Call(ctx, UpstreamRequest{
		Operation: "orders.cancel",
		Method:    http.MethodDelete,
		Path:      "/v1/booking/flight-orders/" + url.PathEscape(id),
		RequestID: requestID,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel flight order: %w", err)
	}
	return nil
}
