package controllers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/entitlement"
)

func TestDenialStatus(t *testing.T) {
	tests := []struct {
		reason entitlement.Reason
		status int
	}{
		{entitlement.ReasonNotABuyer, fiber.StatusForbidden},
		{entitlement.ReasonDesignNotFound, fiber.StatusNotFound},
		{entitlement.ReasonNoSubscription, fiber.StatusPaymentRequired},
		{entitlement.ReasonExpired, fiber.StatusPaymentRequired},
		{entitlement.ReasonExhausted, fiber.StatusPaymentRequired},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, denialStatus(tt.reason), string(tt.reason))
	}
}

func TestDenialMessageDistinctRemediation(t *testing.T) {
	reasons := []entitlement.Reason{
		entitlement.ReasonNotABuyer,
		entitlement.ReasonDesignNotFound,
		entitlement.ReasonNoSubscription,
		entitlement.ReasonExpired,
		entitlement.ReasonExhausted,
	}
	seen := map[string]entitlement.Reason{}
	for _, r := range reasons {
		msg := denialMessage(r)
		assert.NotEmpty(t, msg)
		if prev, dup := seen[msg]; dup {
			t.Fatalf("reasons %s and %s share the message %q", prev, r, msg)
		}
		seen[msg] = r
	}
}
