package validation

import (
	"strings"
	"unicode"

	validatorv10 "github.com/go-playground/validator/v10"
)

// minWalletDigits is the shortest phone number a mobile money wallet accepts.
const minWalletDigits = 10

// New returns a configured validator with the custom rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	_ = v.RegisterValidation("ugxprice", validateUGXPrice)

	// mobile money payments need a reachable wallet number, so count digits
	// rather than trusting the raw length check on Phone.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

// validateUGXPrice accepts any price string that carries at least one digit.
func validateUGXPrice(fl validatorv10.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
}

func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)
	if req.PaymentMethod != "mobile_money" {
		return
	}

	digits := 0
	for _, r := range req.Phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < minWalletDigits {
		sl.ReportError(req.Phone, "phone", "Phone", "wallet_number", "")
	}
}
