package payment

import (
	"strings"
	"testing"
)

func TestSignatureRoundTrip(t *testing.T) {
	sig := ComputeSignature("order_abc", "pay_xyz", "top-secret")

	if !VerifySignature("order_abc", "pay_xyz", sig, "top-secret") {
		t.Fatalf("expected signature to verify")
	}
	if !VerifySignature("order_abc", "pay_xyz", strings.ToUpper(sig), "top-secret") {
		t.Fatalf("expected case-insensitive hex to verify")
	}
}

func TestSignatureRejections(t *testing.T) {
	sig := ComputeSignature("order_abc", "pay_xyz", "top-secret")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		sig       string
		secret    string
	}{
		{name: "wrong order", orderID: "order_other", paymentID: "pay_xyz", sig: sig, secret: "top-secret"},
		{name: "wrong payment", orderID: "order_abc", paymentID: "pay_other", sig: sig, secret: "top-secret"},
		{name: "wrong secret", orderID: "order_abc", paymentID: "pay_xyz", sig: sig, secret: "other"},
		{name: "empty signature", orderID: "order_abc", paymentID: "pay_xyz", sig: "", secret: "top-secret"},
		{name: "not hex", orderID: "order_abc", paymentID: "pay_xyz", sig: "zzzz", secret: "top-secret"},
		{name: "empty secret", orderID: "order_abc", paymentID: "pay_xyz", sig: sig, secret: ""},
	}

	for _, tt := range tests {
		if VerifySignature(tt.orderID, tt.paymentID, tt.sig, tt.secret) {
			t.Fatalf("%s: expected verification to fail", tt.name)
		}
	}
}
