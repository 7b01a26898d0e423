package travelclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/railzwaylabs/travel-gateway/pkg/telemetry/correlation"
	"github.com/railzwaylabs/travel-gateway/pkg/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, provider *testhelper.MockProvider) *Client {
	t.Helper()
	creds := Credentials{
		Environment:  EnvTest,
		BaseURL:      provider.URL(),
		ClientID:     "test-client",
		ClientSecret: "test-secret",
	}
	cfg := Config{Timeout: 5 * time.Second}
	tokens := NewTokenCache(NewAuthClient(creds, cfg), zap.NewNop())
	return New(cfg, creds, tokens, zap.NewNop())
}

func TestClient_Call_SendsHeadersAndQuery(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/reference-data/locations", http.StatusOK, `{"data":[{"id":"CMUC","name":"MUNICH","iataCode":"MUC","subType":"CITY"}],"meta":{"count":1}}`)
	client := newTestClient(t, provider)

	radius := (*int)(nil)
	var out Envelope[[]Location]
	err := client.Call(context.Background(), UpstreamRequest{
		Operation: "locations.search",
		Method:    http.MethodGet,
		Path:      "/v1/reference-data/locations",
		Query: map[string]any{
			"keyword": "mun",
			"subType": []string{"AIRPORT", "CITY"},
			"empty":   "",
			"radius":  radius,
		},
		RequestID: "req-123",
	}, &out)

	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "MUC", out.Data[0].IATACode)

	req, ok := provider.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Bearer token-1", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Equal(t, "req-123", req.Header.Get("X-Request-Id"))

	q, err := url.ParseQuery(req.Query)
	require.NoError(t, err)
	assert.Equal(t, "mun", q.Get("keyword"))
	assert.Equal(t, "AIRPORT,CITY", q.Get("subType"))
	assert.NotContains(t, q, "empty")
	assert.NotContains(t, q, "radius")
}

func TestClient_Call_PostsJSONBody(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodPost, "/v1/shopping/flight-offers/pricing", http.StatusOK, `{"data":{"type":"flight-offers-pricing","flightOffers":[{"id":"1"}]}}`)
	client := newTestClient(t, provider)

	priced, err := client.PriceFlightOffers(context.Background(), "req-1", []json.RawMessage{json.RawMessage(`{"id":"1"}`)})
	require.NoError(t, err)
	require.Len(t, priced.Pricing.FlightOffers, 1)

	req, _ := provider.LastRequest()
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"type":"flight-offers-pricing","flightOffers":[{"id":"1"}]}}`, string(req.Body))
}

func TestClient_Call_EmptyBodyDecodesAsEmptyObject(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities/42", http.StatusOK, "")
	client := newTestClient(t, provider)

	activity, err := client.GetActivity(context.Background(), "req", "42")
	require.NoError(t, err)
	assert.Empty(t, activity.ID)
}

func TestClient_Call_DeleteWithoutBody(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.Handle(http.MethodDelete, "/v1/booking/flight-orders/eJzT", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, provider)

	require.NoError(t, client.CancelFlightOrder(context.Background(), "req", "eJzT"))
	assert.Equal(t, int64(1), provider.CapabilityRequests.Load())
}

func TestClient_Call_NonSuccessStatus(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.Handle(http.MethodGet, "/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		testhelper.ProviderError(http.StatusTooManyRequests, 38194, "Too many requests", "quota exceeded")(w, r)
	})
	client := newTestClient(t, provider)

	_, err := client.SearchFlightOffers(context.Background(), "req-9", FlightSearchParams{Origin: "MAD", Destination: "BCN", DepartureDate: "2030-01-01", Adults: 1})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindHTTP, upErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, upErr.Status)
	assert.Equal(t, "7", upErr.Header.Get("Retry-After"))
	assert.Equal(t, "req-9", upErr.RequestID)

	issues := upErr.ProviderIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, 38194, issues[0].Code)
	assert.Equal(t, "quota exceeded", issues[0].Detail)
}

func TestClient_Call_UnauthorizedInvalidatesToken(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	var calls atomic.Int32
	provider.Handle(http.MethodGet, "/v1/booking/flight-orders/abc", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			testhelper.ProviderError(http.StatusUnauthorized, 38190, "Invalid access token", "expired")(w, r)
			return
		}
		testhelper.JSONResponse(http.StatusOK, `{"data":{"id":"abc"}}`)(w, r)
	})
	client := newTestClient(t, provider)

	_, err := client.GetFlightOrder(context.Background(), "req", "abc")
	require.Error(t, err)
	assert.True(t, client.Tokens().ExpiresAt().IsZero())

	order, err := client.GetFlightOrder(context.Background(), "req", "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", order.ID)
	assert.Equal(t, int64(2), provider.TokenRequests.Load())

	req, _ := provider.LastRequest()
	assert.Equal(t, "Bearer token-2", req.Header.Get("Authorization"))
}

func TestClient_Call_TokenFailureSkipsCapability(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.FailToken.Store(true)
	client := newTestClient(t, provider)

	_, _, err := client.SearchLocations(context.Background(), "req", LocationSearchParams{Keyword: "par"})

	var authErr *UpstreamAuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Zero(t, provider.CapabilityRequests.Load())
}

func TestClient_Call_TransportError(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	client := newTestClient(t, provider)
	_, err := client.Tokens().GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	provider.Server.Close()

	_, err = client.SearchActivities(context.Background(), "req", ActivitySearchParams{Latitude: 41.39, Longitude: 2.17})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindTransport, upErr.Kind)
	assert.Zero(t, upErr.Status)
}

func TestClient_Call_DecodeError(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/reference-data/locations/hotels/by-city", http.StatusOK, `<html>gateway</html>`)
	client := newTestClient(t, provider)

	_, err := client.ListHotelsByCity(context.Background(), "req", HotelListParams{CityCode: "PAR"})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindDecode, upErr.Kind)
	assert.Equal(t, http.StatusOK, upErr.Status)
}

func TestRetryPolicy_RetriesSafeTransportErrorsOnly(t *testing.T) {
	attempts := 0
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
	transport := &UpstreamError{Kind: KindTransport, Err: errors.New("connection reset")}

	err := policy.Do(context.Background(), true, func() error {
		attempts++
		return transport
	})
	assert.ErrorIs(t, err, transport)
	assert.Equal(t, 3, attempts)

	attempts = 0
	_ = policy.Do(context.Background(), false, func() error {
		attempts++
		return transport
	})
	assert.Equal(t, 1, attempts)

	attempts = 0
	_ = policy.Do(context.Background(), true, func() error {
		attempts++
		return &UpstreamError{Kind: KindHTTP, Status: http.StatusServiceUnavailable}
	})
	assert.Equal(t, 1, attempts)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities", http.StatusBadGateway, `{"errors":[{"status":502}]}`)

	creds := Credentials{Environment: EnvTest, BaseURL: provider.URL(), ClientID: "id", ClientSecret: "secret"}
	cfg := Config{
		Timeout:               5 * time.Second,
		CircuitBreakerEnabled: true,
		CBFailureThreshold:    2,
		CBMinRequests:         2,
		CBRecoveryTime:        time.Minute,
		CBSamplingDuration:    time.Minute,
		CBHalfOpenMaxSuccess:  1,
	}
	client := New(cfg, creds, NewTokenCache(NewAuthClient(creds, cfg), nil), nil)

	for i := 0; i < 2; i++ {
		_, err := client.SearchActivities(context.Background(), "req", ActivitySearchParams{})
		require.Error(t, err)
	}
	_, err := client.SearchActivities(context.Background(), "req", ActivitySearchParams{})

	assert.ErrorIs(t, err, ErrBreakerOpen)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindTransport, upErr.Kind)
	assert.Equal(t, int64(2), provider.CapabilityRequests.Load())
}

func TestEncodeQuery(t *testing.T) {
	nonStop := true
	var missing *bool

	query, keys := EncodeQuery(map[string]any{
		"originLocationCode": "MAD",
		"adults":             2,
		"nonStop":            &nonStop,
		"maxPrice":           missing,
		"returnDate":         "",
		"ratings":            []int{4, 5},
		"amenities":          []string{},
		"latitude":           41.397158,
		"nothing":            nil,
	})

	assert.Equal(t, []string{"adults", "latitude", "nonStop", "originLocationCode", "ratings"}, keys)
	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	assert.Equal(t, "2", values.Get("adults"))
	assert.Equal(t, "true", values.Get("nonStop"))
	assert.Equal(t, "4,5", values.Get("ratings"))
	assert.Equal(t, "41.397158", values.Get("latitude"))
}

func TestClient_Call_FallsBackToContextCorrelationID(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities/7", http.StatusOK, `{"data":{"id":"7"}}`)
	client := newTestClient(t, provider)

	ctx := correlation.ContextWithCorrelationID(context.Background(), "from-ctx")
	_, err := client.GetActivity(ctx, "", "7")
	require.NoError(t, err)
	req, _ := provider.LastRequest()
	assert.Equal(t, "from-ctx", req.Header.Get("X-Request-Id"))

	_, err = client.GetActivity(context.Background(), "", "7")
	require.NoError(t, err)
	req, _ = provider.LastRequest()
	assert.Len(t, req.Header.Get("X-Request-Id"), 26)
}

func TestClient_ShortLivedTokenIsNeverReused(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.SetExpiresIn(30)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities/7", http.StatusOK, `{"data":{"id":"7"}}`)
	client := newTestClient(t, provider)

	for i := 0; i < 2; i++ {
		_, err := client.GetActivity(context.Background(), "req", "7")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), provider.TokenRequests.Load())
}

func TestClient_Call_ForwardsTraceparent(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities", http.StatusOK, `{"data":[]}`)

	core, logs := observer.New(zapcore.InfoLevel)
	creds := Credentials{Environment: EnvTest, BaseURL: provider.URL(), ClientID: "id", ClientSecret: "secret"}
	cfg := Config{Timeout: 5 * time.Second}
	client := New(cfg, creds, NewTokenCache(NewAuthClient(creds, cfg), zap.NewNop()), zap.New(core))

	const header = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := correlation.ContextWithTraceparent(context.Background(), header)
	err := client.Call(ctx, UpstreamRequest{Operation: "activities.search", Path: "/v1/shopping/activities", RequestID: "req-1"}, nil)
	require.NoError(t, err)

	req, ok := provider.LastRequest()
	require.True(t, ok)
	assert.Equal(t, header, req.Header.Get("Traceparent"))

	ends := logs.FilterMessage("upstream_call_end").All()
	require.Len(t, ends, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ends[0].ContextMap()["trace_id"])
}

func TestClient_Call_NoTraceparentWithoutSpan(t *testing.T) {
	provider := testhelper.NewMockProvider(t)
	provider.HandleJSON(http.MethodGet, "/v1/shopping/activities", http.StatusOK, `{"data":[]}`)
	client := newTestClient(t, provider)

	require.NoError(t, client.Call(context.Background(), UpstreamRequest{Path: "/v1/shopping/activities", RequestID: "req-1"}, nil))

	req, _ := provider.LastRequest()
	assert.Empty(t, req.Header.Get("Traceparent"))
}
