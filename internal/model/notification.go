package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType 低庫存通知類型
type NotificationType string

const (
	NotificationLowStock   NotificationType = "low_stock"
	NotificationOutOfStock NotificationType = "out_of_stock"
)

func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationLowStock, NotificationOutOfStock:
		return true
	}
	return false
}

// Notification is a stock alert derived from counter-quantity changes. It is
// "open" while IsRead is false; recovery above the threshold marks every open
// alert for the ticket as read.
type Notification struct {
	ID           int              `json:"id" db:"id"`
	TicketTypeID uuid.UUID        `json:"ticket_type_id" db:"ticket_type_id"`
	KioskID      string           `json:"kiosk_id" db:"kiosk_id"`
	Type         NotificationType `json:"type" db:"type"`
	Message      string           `json:"message" db:"message"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
