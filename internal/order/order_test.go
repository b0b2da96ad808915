package order

import (
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   Order
	}{
		{"typical", Order{ID: 1, Product: "Laptop", Price: 999.99}},
		{"zero value", Order{}},
		{"negative id", Order{ID: -42, Product: "Mouse", Price: 19.9}},
		{"empty product", Order{ID: 7, Product: "", Price: 0}},
		{"large values", Order{ID: 1<<62 - 1, Product: "Rack", Price: 123456789.01}},
		{"unicode product", Order{ID: 3, Product: "Laptophülle ü", Price: 12.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			out, err := Decode(payload)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if out != tc.in {
				t.Fatalf("round trip mismatch: got %+v want %+v", out, tc.in)
			}
		})
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Decode([]byte(`{"id": "not-a-number"}`))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}

	var deserr *DeserializationError
	if !errors.As(err, &deserr) {
		t.Fatalf("expected *DeserializationError, got %T", err)
	}
	if deserr.Unwrap() == nil {
		t.Fatal("expected wrapped cause")
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	_, err := Decode([]byte(`{"id":1,`))
	var deserr *DeserializationError
	if !errors.As(err, &deserr) {
		t.Fatalf("expected *DeserializationError, got %v", err)
	}
}
