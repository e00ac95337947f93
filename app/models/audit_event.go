package models

import "time"

// AuditEvent stores entitlement and payment events emitted by the audit sink.
// Rows are append-only.
type AuditEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON string    `gorm:"type:longtext;not null" json:"payload_json"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
