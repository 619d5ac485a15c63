package models

import "time"

// Notification targets.
const (
	TargetSingle   = "SINGLE"
	TargetStation  = "STATION"
	TargetDistrict = "DISTRICT"
	TargetAdmin    = "ADMIN"
	TargetAll      = "ALL"
)

// Dispatch outcomes written back to the queue document.
const (
	NotificationInvalidParams = "invalid_params"
	NotificationNoRecipients  = "no_recipients"
	NotificationNoTokens      = "no_tokens"
	NotificationProcessed     = "processed"
	NotificationFailed        = "failed"
)

// AppNotification is a queued push request, also kept as in-app history.
type AppNotification struct {
	ID             string    `firestore:"-" json:"id"`
	Title          string    `firestore:"title" json:"title"`
	Body           string    `firestore:"body" json:"body"`
	TargetType     string    `firestore:"targetType" json:"targetType"`
	TargetKgid     string    `firestore:"targetKgid,omitempty" json:"targetKgid,omitempty"`
	TargetDistrict string    `firestore:"targetDistrict,omitempty" json:"targetDistrict,omitempty"`
	TargetStation  string    `firestore:"targetStation,omitempty" json:"targetStation,omitempty"`
	RequestedBy    string    `firestore:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	Status         string    `firestore:"status,omitempty" json:"status,omitempty"`
	SentCount      int       `firestore:"sentCount,omitempty" json:"sentCount,omitempty"`
	FailedCount    int       `firestore:"failedCount,omitempty" json:"failedCount,omitempty"`
	Error          string    `firestore:"error,omitempty" json:"error,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	ProcessedAt    time.Time `firestore:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// OTP request states.
const (
	OTPPending = "pending"
	OTPUsed    = "used"
	OTPSpent   = "spent"
)

// OTPRequest is stored at otp_requests/{normalized email}.
type OTPRequest struct {
	Email     string    `firestore:"email"`
	Code      string    `firestore:"otp"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
	UsedAt    time.Time `firestore:"usedAt,omitempty"`
}
