// internal/storage/models/base.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel replaces gorm.Model: string UUID keys to match the ids handed
// out to external systems, no soft deletes.
type BaseModel struct {
	ID        string    `gorm:"primarykey;type:varchar(36)"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the caller did not provide an id.
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
