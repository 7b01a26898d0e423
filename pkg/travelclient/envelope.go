package travelclient

import "encoding/json"

// Envelope is the provider's common response document.
type Envelope[T any] struct {
	Data         T                          `json:"data"`
	Meta         *Meta                      `json:"meta,omitempty"`
	Dictionaries map[string]json.RawMessage `json:"dictionaries,omitempty"`
	Warnings     []ProviderIssue            `json:"warnings,omitempty"`
}

type Meta struct {
	Count int               `json:"count,omitempty"`
	Links map[string]string `json:"links,omitempty"`
}

type GeoCode struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Price struct {
	Amount       string `json:"amount,omitempty"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}
