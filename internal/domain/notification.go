package domain

// NotificationRecord is an immutable log entry for every alert. Written
// before the provider is called, so a failed delivery still leaves a record.
type NotificationRecord struct {
	NotificationID string `json:"id" dynamodbav:"notification_id"`
	Address        string `json:"address" dynamodbav:"address"`
	Message        string `json:"message" dynamodbav:"message"`
	Timestamp      int64  `json:"timestamp" dynamodbav:"timestamp"` // epoch ms
}

// Recipient identifies the delivery channels for one notification.
// At least one of Email or Number must be set.
type Recipient struct {
	Email  string `json:"email,omitempty"`
	Number string `json:"number,omitempty"`
}

func (r Recipient) Empty() bool { return r.Email == "" && r.Number == "" }

// SendRequest is the provider-facing notification payload, shared by the
// monitoring dispatcher and the direct /api/notify endpoint.
type SendRequest struct {
	Type       string            `json:"type"`
	To         Recipient         `json:"to"`
	Parameters map[string]string `json:"parameters,omitempty"`
}
