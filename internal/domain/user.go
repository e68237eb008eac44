package domain

import "time"

// HealthSnapshot is one monitoring-cycle observation of an account's health
// factor. The most recent snapshots are kept on the User record and feed the
// trend predictor.
type HealthSnapshot struct {
	HealthFactor float64 `json:"healthFactor" dynamodbav:"health_factor"`
	Timestamp    int64   `json:"timestamp" dynamodbav:"timestamp"` // epoch ms
}

// User is a monitored account with its alert settings. Identity is the chain
// address by convention; RecordID is the storage key. Re-saving settings for
// an address appends a fresh row rather than updating in place.
type User struct {
	RecordID    string           `json:"id" dynamodbav:"record_id"`
	Address     string           `json:"address" dynamodbav:"address"`
	Threshold   float64          `json:"threshold" dynamodbav:"threshold"`
	Email       string           `json:"email,omitempty" dynamodbav:"email"`
	Phone       string           `json:"phone,omitempty" dynamodbav:"phone"`
	BorrowValue float64          `json:"borrowValue" dynamodbav:"borrow_value"`
	History     []HealthSnapshot `json:"history" dynamodbav:"history"`
	CreatedAt   time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time        `json:"updated" dynamodbav:"updated_at"`
}

type SaveSettingsRequest struct {
	Address   string  `json:"address" validate:"required,eth_addr"`
	Threshold float64 `json:"threshold" validate:"required,gt=0"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"omitempty,e164"`
}
