// internal/storage/models/report.go
package models

import "time"

// Report is an immutable aggregation snapshot. Data holds the full computed
// report as JSON; the row is never updated after creation.
type Report struct {
	BaseModel
	ClientID  string    `gorm:"index;not null;type:varchar(36)"`
	Title     string    `gorm:"not null;type:varchar(300)"`
	Period    string    `gorm:"not null;type:varchar(20)"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	Data      []byte    `gorm:"type:jsonb"`
	Status    string    `gorm:"not null;type:varchar(20)"`
}

// Delivery statuses mirror what the messaging channel reports back.
const (
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryRead      = "read"
	DeliveryFailed    = "failed"
)

// Delivery is evidence that a rendered report or alert went out through a
// channel. One row per successful dispatch attempt; no automatic retries.
type Delivery struct {
	BaseModel
	ClientID  string    `gorm:"index;type:varchar(36)"`
	Channel   string    `gorm:"not null;type:varchar(20)"`
	Recipient string    `gorm:"not null;type:varchar(200)"`
	Content   string    `gorm:"type:text"`
	Template  string    `gorm:"type:varchar(100)"`
	Status    string    `gorm:"not null;type:varchar(20)"`
	SentAt    time.Time `gorm:"not null"`
}
