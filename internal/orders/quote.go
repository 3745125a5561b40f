package orders

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// deliveryFeePercent of the subtotal is charged for delivery.
const deliveryFeePercent = 10

var ugxPrinter = message.NewPrinter(language.English)

// ParsePrice reads a display price such as "UGX 1,200,000" by dropping every
// non-digit. Strings without digits, or too large to fit, parse as 0.
func ParsePrice(s string) int64 {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// NewQuote prices items: the delivery fee is 10% of the subtotal rounded to
// the nearest shilling.
func NewQuote(items []Item) Quote {
	var subtotal int64
	for _, it := range items {
		subtotal += ParsePrice(it.EstimatedPrice)
	}
	fee := (subtotal*deliveryFeePercent + 50) / 100
	return Quote{Subtotal: subtotal, DeliveryFee: fee, Total: subtotal + fee}
}

// FormatUGX renders n the way prices are shown to shoppers.
func FormatUGX(n int64) string {
	return ugxPrinter.Sprintf("UGX %d", n)
}
