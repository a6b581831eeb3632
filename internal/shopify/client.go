package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

const orderFields = `
    id
    name
    email
    createdAt
    displayFinancialStatus
    displayFulfillmentStatus
    totalPriceSet { shopMoney { amount currencyCode } }
    customer { firstName lastName email }
    fulfillments(first: 1) { trackingInfo(first: 1) { number url } }`

const (
	searchOrdersQuery = `query SearchOrders($query: String!) {
  orders(first: 1, query: $query) { edges { node {` + orderFields + `
  } } }
}`

	resolveOrderIDQuery = `query ResolveOrderID($query: String!) {
  orders(first: 1, query: $query) { edges { node { id } } }
}`

	orderByIDQuery = `query OrderByID($id: ID!) {
  order(id: $id) {` + orderFields + `
  }
}`
)

const gidPrefix = "gid://shopify/Order/"

// Client queries the Shopify GraphQL Admin API for orders.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
	twoStep     bool
}

// NewClient builds a Client for one store. A nil httpClient uses http.DefaultClient.
func NewClient(cfg config.ShopifyConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		endpoint:    fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimRight(cfg.ShopifyBaseURL(), "/"), cfg.APIVersion),
		accessToken: cfg.AccessToken,
		twoStep:     cfg.TwoStepLookup,
	}
}

// FindOrder returns the first order matching q in API order.
func (c *Client) FindOrder(ctx context.Context, q Query) (*Order, error) {
	orderID := strings.TrimSpace(q.OrderID)
	name := strings.TrimSpace(q.CustomerName)

	switch {
	case strings.HasPrefix(orderID, gidPrefix):
		return c.orderByID(ctx, orderID)
	case orderID != "":
		search := "name:" + displayNumber(orderID)
		if c.twoStep {
			id, err := c.resolveOrderID(ctx, search)
			if err != nil {
				return nil, err
			}
			return c.orderByID(ctx, id)
		}
		return c.searchFirst(ctx, search)
	case name != "":
		return c.searchFirst(ctx, quoteTerm(name))
	default:
		return nil, ErrEmptyQuery
	}
}

type orderEdges struct {
	Orders struct {
		Edges []struct {
			Node Order `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

func (c *Client) searchFirst(ctx context.Context, search string) (*Order, error) {
	logger.FromContext(ctx).Debug("searching orders", zap.String("search", search))

	var data orderEdges
	if err := c.do(ctx, searchOrdersQuery, map[string]any{"query": search}, &data); err != nil {
		return nil, err
	}
	if len(data.Orders.Edges) == 0 {
		return nil, ErrOrderNotFound
	}
	order := data.Orders.Edges[0].Node
	return &order, nil
}

func (c *Client) resolveOrderID(ctx context.Context, search string) (string, error) {
	var data orderEdges
	if err := c.do(ctx, resolveOrderIDQuery, map[string]any{"query": search}, &data); err != nil {
		return "", err
	}
	if len(data.Orders.Edges) == 0 || data.Orders.Edges[0].Node.ID == "" {
		return "", ErrOrderNotFound
	}
	id := data.Orders.Edges[0].Node.ID
	logger.FromContext(ctx).Debug("resolved order number", zap.String("search", search), zap.String("order_gid", id))
	return id, nil
}

func (c *Client) orderByID(ctx context.Context, id string) (*Order, error) {
	var data struct {
		Order *Order `json:"order"`
	}
	if err := c.do(ctx, orderByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, ErrOrderNotFound
	}
	return data.Order, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts one GraphQL operation and decodes its data into out.
// Non-2xx statuses and GraphQL error payloads both become *UpstreamError.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call order api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if len(envelope.Errors) > 0 || len(envelope.Data) == 0 {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("unmarshal order data: %w", err)
	}
	return nil
}

// displayNumber turns "1001" into "#1001"; an existing prefix is kept.
func displayNumber(orderID string) string {
	if strings.HasPrefix(orderID, "#") {
		return orderID
	}
	return "#" + orderID
}

// quoteTerm makes a free-text search term out of a customer name.
func quoteTerm(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
