package validation

// OrderInfoQuery holds the query parameters of GET /order_info.
type OrderInfoQuery struct {
	OrderID      string `form:"order_id" validate:"max=255"`      // visible order number or order gid
	CustomerName string `form:"customer_name" validate:"max=255"` // full or partial customer name
}
