package orders

import "testing"

func TestParsePrice(t *testing.T) {
	cases := map[string]int64{
		"UGX 1,200,000": 1200000,
		"UGX 15,000":    15000,
		"450000":        450000,
		"UGX":           0,
		"":              0,
		"about 2k":      2,
		"UGX 99,999,999,999,999,999,999,999": 0,
	}
	for in, want := range cases {
		if got := ParsePrice(in); got != want {
			t.Errorf("ParsePrice(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNewQuote(t *testing.T) {
	q := NewQuote([]Item{
		{Name: "Sugar", EstimatedPrice: "UGX 1,000"},
		{Name: "Rice", EstimatedPrice: "UGX 2,500"},
	})
	if q.Subtotal != 3500 || q.DeliveryFee != 350 || q.Total != 3850 {
		t.Fatalf("unexpected quote: %+v", q)
	}
}

func TestNewQuote_RoundsFee(t *testing.T) {
	cases := []struct {
		subtotal string
		fee      int64
	}{
		{"UGX 1,005", 101}, // 100.5 rounds up
		{"UGX 1,004", 100},
		{"UGX 0", 0},
	}
	for _, tc := range cases {
		q := NewQuote([]Item{{EstimatedPrice: tc.subtotal}})
		if q.DeliveryFee != tc.fee {
			t.Errorf("%s: fee = %d, want %d", tc.subtotal, q.DeliveryFee, tc.fee)
		}
		if q.Total != q.Subtotal+q.DeliveryFee {
			t.Errorf("%s: total %d != subtotal + fee", tc.subtotal, q.Total)
		}
	}
}

func TestFormatUGX(t *testing.T) {
	cases := map[int64]string{
		0:       "UGX 0",
		950:     "UGX 950",
		3850:    "UGX 3,850",
		1200000: "UGX 1,200,000",
	}
	for in, want := range cases {
		if got := FormatUGX(in); got != want {
			t.Errorf("FormatUGX(%d) = %q, want %q", in, got, want)
		}
	}
}
