package audit

import (
	"encoding/json"
	"log"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"gorm.io/gorm"
)

// Event types emitted by the payment adapter and entitlement engine.
const (
	EventOrderCreated      = "payment.order_created"
	EventPaymentVerified   = "payment.verified"
	EventPaymentFailed     = "payment.failed"
	EventSignatureRejected = "payment.signature_rejected"
	EventClaimsMismatch    = "payment.claims_mismatch"
	EventGranted           = "entitlement.granted"
	EventDenied            = "entitlement.denied"
	EventGrantRedeemed     = "grant.redeemed"
)

// Recorder receives entitlement and payment events. Recording is
// fire-and-forget: callers never block on the sink and never fail
// because of it.
type Recorder interface {
	Record(eventType string, payload map[string]any)
}

// Sink persists events to the audit_events table from a background worker.
type Sink struct {
	db     *gorm.DB
	events chan models.AuditEvent
	done   chan struct{}
}

const defaultBuffer = 256

// NewSink starts a sink writing to the given DB handle.
func NewSink(db *gorm.DB) *Sink {
	s := &Sink{
		db:     db,
		events: make(chan models.AuditEvent, defaultBuffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sink) Record(eventType string, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("audit: failed to marshal payload for %s: %v", eventType, err)
		raw = []byte("{}")
	}
	ev := models.AuditEvent{EventType: eventType, PayloadJSON: string(raw)}
	select {
	case s.events <- ev:
	default:
		// Never block request handling on the audit trail.
		log.Printf("audit: buffer full, dropping event %s", eventType)
	}
}

// Close drains buffered events and stops the worker.
func (s *Sink) Close() {
	close(s.events)
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for ev := range s.events {
		if err := s.db.Create(&ev).Error; err != nil {
			log.Printf("audit: failed to persist event %s: %v", ev.EventType, err)
		}
	}
}

// Nop discards all events. Used in tests and as a safe default.
type Nop struct{}

func (Nop) Record(string, map[string]any) {}
