package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/journal"
	"github.com/imrishuroy/shopify-support-api/internal/shopify"
	"github.com/imrishuroy/shopify-support-api/internal/support"
	"github.com/imrishuroy/shopify-support-api/internal/tracking"
)

// upstreams fakes the Shopify Admin API and ParcelsApp for one test.
type upstreams struct {
	orderStatus   int
	orderBody     string
	trackingBody  string
	orderCalls    int32
	trackingCalls int32
}

func (u *upstreams) start(t *testing.T) (shopURL, trackURL string) {
	t.Helper()
	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.orderCalls, 1)
		if u.orderStatus != 0 {
			w.WriteHeader(u.orderStatus)
		}
		_, _ = w.Write([]byte(u.orderBody))
	}))
	track := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.trackingCalls, 1)
		_, _ = w.Write([]byte(u.trackingBody))
	}))
	t.Cleanup(shop.Close)
	t.Cleanup(track.Close)
	return shop.URL, track.URL + "/api/v1/track"
}

type fakeCompleter struct {
	text string
	err  error
}

func (f fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f.text, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []journal.ReplyEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload any, attributes map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := payload.(journal.ReplyEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func newRouter(t *testing.T, u *upstreams, mode config.ReplyMode, pub EventPublisher, opts ...support.Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	shopURL, trackURL := u.start(t)

	orders := shopify.NewClient(config.ShopifyConfig{
		StoreDomain: "shop.example.com",
		AccessToken: "token",
		APIVersion:  "2024-04",
		BaseURL:     shopURL,
	}, nil)
	tracker := tracking.NewClient(config.TrackingConfig{
		APIURL:  trackURL,
		LinkURL: "https://parcelsapp.com/en/tracking/",
	}, nil)
	svc, err := support.NewService(mode, orders, tracker, opts...)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	cfg := HandlerConfig{Replier: svc}
	if pub != nil {
		cfg.Publisher = pub
	}
	RegisterSupportRoutes(r, cfg)
	return r
}

func get(r *gin.Engine, target string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

const anaNoFulfillment = `{"data":{"orders":{"edges":[{"node":{
  "id":"gid://shopify/Order/5501","name":"#1001","email":"ana@example.com",
  "createdAt":"2024-03-01T10:00:00Z",
  "displayFinancialStatus":"PAID","displayFulfillmentStatus":"UNFULFILLED",
  "totalPriceSet":{"shopMoney":{"amount":"42.00","currencyCode":"EUR"}},
  "customer":{"firstName":"Ana","lastName":"Lee","email":"ana@example.com"},
  "fulfillments":[]}}]}}}`

const anaShipped = `{"data":{"orders":{"edges":[{"node":{
  "id":"gid://shopify/Order/5501","name":"#1001",
  "displayFinancialStatus":"PAID","displayFulfillmentStatus":"FULFILLED",
  "totalPriceSet":{"shopMoney":{"amount":"42.00","currencyCode":"EUR"}},
  "customer":{"firstName":"Ana","lastName":"Lee"},
  "fulfillments":[{"trackingInfo":[{"number":"LX123","url":"https://carrier.example/LX123"}]}]}}]}}}`

func TestOrderInfo_MissingParameters(t *testing.T) {
	u := &upstreams{}
	r := newRouter(t, u, config.ModeStructured, nil)

	for _, target := range []string{"/order_info", "/order_info?order_id=&customer_name=%20"} {
		w, body := get(r, target)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please provide an order ID or a customer name.", body["error"])
	}
	assert.Zero(t, atomic.LoadInt32(&u.orderCalls))
}

func TestOrderInfo_OrderWithoutFulfillment(t *testing.T) {
	u := &upstreams{orderBody: anaNoFulfillment}
	r := newRouter(t, u, config.ModeStructured, nil)

	w, body := get(r, "/order_info?order_id=1001")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "gid://shopify/Order/5501", body["order_id"])
	assert.Equal(t, "#1001", body["order_number"])
	assert.Equal(t, "Ana Lee", body["customer"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "42.00", body["total_price"])
	assert.Equal(t, "EUR", body["currency"])
	assert.Equal(t, "No tracking number available.", body["tracking"])
	assert.Zero(t, atomic.LoadInt32(&u.trackingCalls))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestOrderInfo_TrackingEnrichment(t *testing.T) {
	u := &upstreams{orderBody: anaShipped, trackingBody: `{"status":"Out for delivery"}`}
	r := newRouter(t, u, config.ModeStructured, nil)

	w, body := get(r, "/order_info?order_id=1001")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t,
		"Current status: Out for delivery - [Tracking link](https://parcelsapp.com/en/tracking/LX123)",
		body["tracking"])
	assert.Equal(t, "https://carrier.example/LX123", body["tracking_url"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.trackingCalls))
}

func TestOrderInfo_NotFound(t *testing.T) {
	u := &upstreams{orderBody: `{"data":{"orders":{"edges":[]}}}`}
	r := newRouter(t, u, config.ModeStructured, nil)

	w, _ := get(r, "/order_info?customer_name=Ana")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No order found."}`, w.Body.String())
}

func TestOrderInfo_UpstreamFailureSurfacesStatusAndBody(t *testing.T) {
	u := &upstreams{orderStatus: http.StatusUnauthorized, orderBody: `{"errors":"[API] Invalid API key or access token"}`}
	r := newRouter(t, u, config.ModeStructured, nil)

	w, body := get(r, "/order_info?order_id=1001")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Error retrieving order: 401", body["error"])
	assert.Equal(t, float64(401), body["status_code"])
	assert.Equal(t, `{"errors":"[API] Invalid API key or access token"}`, body["body"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.orderCalls), "no retry expected")
}

func TestOrderInfo_Narrative(t *testing.T) {
	u := &upstreams{orderBody: anaNoFulfillment}
	r := newRouter(t, u, config.ModeNarrative, nil,
		support.WithCompleter(fakeCompleter{text: "Hi Ana! Order #1001 has been paid and will ship soon."}))

	w, _ := get(r, "/order_info?order_id=1001")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"Hi Ana! Order #1001 has been paid and will ship soon."}`, w.Body.String())
}

func TestOrderInfo_NarrativeFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"model error", errors.New("permission denied"), http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &upstreams{orderBody: anaNoFulfillment}
			r := newRouter(t, u, config.ModeNarrative, nil, support.WithCompleter(fakeCompleter{err: tt.err}))

			w, body := get(r, "/order_info?order_id=1001")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, body["error"], "Error generating support response")
		})
	}
}

func TestOrderInfo_PublishesReplyEvent(t *testing.T) {
	u := &upstreams{orderBody: anaNoFulfillment}
	pub := &recordingPublisher{}
	r := newRouter(t, u, config.ModeStructured, pub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/order_info?order_id=1001", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "req-42", ev.RequestID)
	assert.Equal(t, "gid://shopify/Order/5501", ev.OrderID)
	assert.Equal(t, "structured", ev.Mode)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestOrderInfo_PublishFailureDoesNotFailRequest(t *testing.T) {
	u := &upstreams{orderBody: anaNoFulfillment}
	pub := &recordingPublisher{err: errors.New("queue unavailable")}
	r := newRouter(t, u, config.ModeStructured, pub)

	w, body := get(r, "/order_info?order_id=1001")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana Lee", body["customer"])
}

func TestOrderInfo_SparseOrderUsesPlaceholders(t *testing.T) {
	u := &upstreams{orderBody: `{"data":{"orders":{"edges":[{"node":{
	  "id":"gid://shopify/Order/5501","name":"#1001",
	  "totalPriceSet":null,"customer":null,"fulfillments":null}}]}}}`}
	r := newRouter(t, u, config.ModeStructured, nil)

	w, body := get(r, "/order_info?order_id=1001")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "unavailable", body["total_price"])
	assert.Equal(t, "Unknown", body["currency"])
	assert.Equal(t, "Unknown", body["customer"])
	assert.Equal(t, "No tracking number available.", body["tracking"])
}
