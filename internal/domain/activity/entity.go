package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is one journal row. The file engine never reads it back; it exists
// for auditing and the activity feed only.
type Event struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID  string    `json:"-" gorm:"type:varchar(128);not null;index:idx_activity_tenant_created,priority:1"`
	Action    string    `json:"action" gorm:"type:varchar(32);not null"`
	Path      string    `json:"path" gorm:"type:text;not null"`
	Size      int64     `json:"size" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_activity_tenant_created,priority:2;index"`
}

func (Event) TableName() string {
	return "file_activity"
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
