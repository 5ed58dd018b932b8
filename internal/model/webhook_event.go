package model

import "time"

// WebhookEvent records a processed payment provider event for idempotency
type WebhookEvent struct {
	EventID    string    `json:"event_id" gorm:"type:varchar(255);primarykey"`
	Type       string    `json:"type" gorm:"type:varchar(100);not null"`
	SessionID  string    `json:"session_id,omitempty" gorm:"type:varchar(255);index"`
	ReceivedAt time.Time `json:"received_at" gorm:"autoCreateTime"`
}
