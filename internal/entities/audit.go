package entities

import "time"

type AuditEventType string

const (
	AuditEventCreate     AuditEventType = "create"
	AuditEventUpdate     AuditEventType = "update"
	AuditEventDelete     AuditEventType = "delete"
	AuditEventPower      AuditEventType = "power"
	AuditEventLowBattery AuditEventType = "low_battery"
	AuditEventCleanup    AuditEventType = "cleanup"
)

type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusFailed   AuditStatus = "failed"
	AuditStatusRejected AuditStatus = "rejected" // validation or conflict, nothing written
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "device_create", "device_turn_on"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	DeviceKind  Kind           `gorm:"size:8" json:"device_kind,omitempty"`
	DeviceID    string         `gorm:"index;size:64" json:"device_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
