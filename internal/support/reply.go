package support

import (
	"fmt"
	"strings"
	"time"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/shopify"
)

// Placeholders for fields the order does not carry.
const (
	Unknown     = "Unknown"
	Unavailable = "unavailable"
)

// Summary is the structured reply.
type Summary struct {
	OrderID           string `json:"order_id"`
	OrderNumber       string `json:"order_number"`
	Customer          string `json:"customer"`
	Email             string `json:"email"`
	Status            string `json:"status"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
	TotalPrice        string `json:"total_price"`
	Currency          string `json:"currency"`
	Tracking          string `json:"tracking"`
	TrackingURL       string `json:"tracking_url"`
	CreatedAt         string `json:"created_at"`
}

// NarrativeBody is the JSON shape of a narrative reply.
type NarrativeBody struct {
	Response string `json:"response"`
}

// Reply is the composed answer. Mode decides which shape Body returns;
// Summary is always filled so callers can log or publish it.
type Reply struct {
	Mode      config.ReplyMode
	Summary   Summary
	Narrative string
}

// Body returns the value to serialize for the caller.
func (r Reply) Body() any {
	if r.Mode == config.ModeNarrative {
		return NarrativeBody{Response: r.Narrative}
	}
	return r.Summary
}

// Summarize flattens an order and its tracking line, filling placeholders for missing data.
func Summarize(o *shopify.Order, trackingLine string) Summary {
	financial := orDefault(o.DisplayFinancialStatus, Unknown)
	fulfillment := orDefault(o.DisplayFulfillmentStatus, Unknown)
	_, trackingURL := o.Tracking()

	s := Summary{
		OrderID:           o.ID,
		OrderNumber:       orDefault(o.Name, Unknown),
		Customer:          customerName(o.Customer),
		Email:             Unavailable,
		Status:            financial + " / " + fulfillment,
		FinancialStatus:   financial,
		FulfillmentStatus: fulfillment,
		TotalPrice:        Unavailable,
		Currency:          orDefault(o.TotalPriceSet.ShopMoney.CurrencyCode, Unknown),
		Tracking:          trackingLine,
		TrackingURL:       orDefault(trackingURL, Unavailable),
		CreatedAt:         Unavailable,
	}

	if amount := o.TotalPriceSet.ShopMoney.Amount; amount.Valid {
		s.TotalPrice = amount.Decimal.StringFixed(2)
	}

	switch {
	case o.Email != "":
		s.Email = o.Email
	case o.Customer != nil && o.Customer.Email != "":
		s.Email = o.Customer.Email
	}
	if !o.CreatedAt.IsZero() {
		s.CreatedAt = o.CreatedAt.UTC().Format(time.RFC3339)
	}
	return s
}

// Details renders the summary as the text block embedded in the completion prompt.
func (s Summary) Details() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Order Number:** %s\n", s.OrderNumber)
	fmt.Fprintf(&b, "**Customer:** %s\n", s.Customer)
	fmt.Fprintf(&b, "**Order Status:** %s\n", s.Status)
	fmt.Fprintf(&b, "**Total:** %s %s\n", s.TotalPrice, s.Currency)
	fmt.Fprintf(&b, "**Tracking:** %s", s.Tracking)
	return b.String()
}

func customerName(c *shopify.Customer) string {
	if c == nil {
		return Unknown
	}
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	return orDefault(name, Unknown)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
