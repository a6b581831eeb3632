package shopify

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when the search succeeded but matched nothing.
var ErrOrderNotFound = errors.New("no order found")

// ErrEmptyQuery is returned when neither an order id nor a customer name is given.
var ErrEmptyQuery = errors.New("order id or customer name required")

// UpstreamError carries a failed Admin API response for diagnosis.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("order api returned status %d", e.StatusCode)
}

// Query identifies the order to look up. OrderID wins when both are set.
type Query struct {
	OrderID      string
	CustomerName string
}

// Order is the subset of a Shopify order the support workflow reads.
type Order struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"` // display number, e.g. "#1001"
	Email                    string        `json:"email"`
	CreatedAt                time.Time     `json:"createdAt"`
	DisplayFinancialStatus   string        `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string        `json:"displayFulfillmentStatus"`
	TotalPriceSet            MoneyBag      `json:"totalPriceSet"`
	Customer                 *Customer     `json:"customer"`
	Fulfillments             []Fulfillment `json:"fulfillments"`
}

type MoneyBag struct {
	ShopMoney Money `json:"shopMoney"`
}

// Money.Amount is invalid when the order carries no price set.
type Money struct {
	Amount       decimal.NullDecimal `json:"amount"`
	CurrencyCode string              `json:"currencyCode"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Fulfillment struct {
	TrackingInfo []TrackingInfo `json:"trackingInfo"`
}

type TrackingInfo struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

// Tracking returns the first fulfillment's first tracking pair, if any.
func (o *Order) Tracking() (number, url string) {
	if len(o.Fulfillments) == 0 || len(o.Fulfillments[0].TrackingInfo) == 0 {
		return "", ""
	}
	ti := o.Fulfillments[0].TrackingInfo[0]
	return ti.Number, ti.URL
}
