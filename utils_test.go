package quarry

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Customer_Email":  "customeremail",
		"customerEmail":   "customeremail",
		"customer-email":  "customeremail",
		"customer.email":  "customeremail",
		" Customer Email": "customeremail",
	}

	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"customerEmail", []string{"customer", "email"}},
		{"customer_email_v2", []string{"customer", "email", "v2"}},
		{"Where is the PII?", []string{"where", "is", "the", "pii"}},
		{"", nil},
	}

	for _, c := range cases {
		if got := Tokenize(c.input); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Invoice Amount", "invoice") {
		t.Fatalf("expected case-insensitive match")
	}
	if ContainsFold("Invoice", "payment") {
		t.Fatalf("unexpected match")
	}
}
