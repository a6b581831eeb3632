package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// tag reported when neither identifying parameter is present
const tagOrderOrCustomer = "order_id_or_customer_name"

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for OrderInfoQuery to ensure
	// at least one identifying parameter carries a non-blank value.
	v.RegisterStructValidation(orderInfoStructValidation, OrderInfoQuery{})

	return v
}

func orderInfoStructValidation(sl validatorv10.StructLevel) {
	q := sl.Current().Interface().(OrderInfoQuery)

	if strings.TrimSpace(q.OrderID) == "" && strings.TrimSpace(q.CustomerName) == "" {
		sl.ReportError(q.OrderID, "order_id", "OrderID", tagOrderOrCustomer, "")
	}
}
