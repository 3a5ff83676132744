package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationStatus string

const (
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)

// NotificationRecord is the audit entry for one dispatch. Status is the
// aggregate fan-out outcome at the time the dispatch finished.
type NotificationRecord struct {
	ID        string             `gorm:"primaryKey" json:"id"`
	UserID    string             `gorm:"index;not null" json:"user_id"`
	Title     string             `gorm:"not null" json:"title"`
	Body      string             `gorm:"not null" json:"body"`
	ContentID *string            `json:"content_id,omitempty"`
	Category  *string            `json:"category,omitempty"`
	Status    NotificationStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (n *NotificationRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// PushPayload is the JSON body delivered to every endpoint.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}
