package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorises an in-app notification.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationReviewInvitation NotificationType = "review_invitation"
	NotificationNewReview        NotificationType = "new_review"
)

// Notification is a persisted in-app message for a user.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// Message is what a caller asks the dispatcher to deliver. Empty SMS or
// EmailSubject skip that channel.
type Message struct {
	Type         NotificationType
	Title        string
	Body         string
	Data         map[string]string
	SMS          string
	EmailSubject string
	EmailBody    string
}

// Contact holds the delivery addresses of a user.
type Contact struct {
	UserID    uuid.UUID
	Name      string
	Phone     string
	Email     string
	PushToken string
}

// PushMessage is the payload written to the push notification topic.
type PushMessage struct {
	UserID uuid.UUID         `json:"user_id"`
	Token  string            `json:"token"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
