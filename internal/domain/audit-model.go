package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Audit actions written by the admin surface.
const (
	AuditInvitationSent    = "INVITATION_SENT"
	AuditRolesChanged      = "ROLES_CHANGED"
	AuditStatusChanged     = "STATUS_CHANGED"
	AuditPermissionGranted = "PERMISSION_GRANTED"
	AuditPermissionRevoked = "PERMISSION_REVOKED"
)

// JSONMap stores arbitrary audit metadata as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported type for JSONMap")
	}
	return json.Unmarshal(b, m)
}

// AuditLog rows are written once and never updated or deleted by the
// application.
type AuditLog struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Action     string  `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string  `gorm:"type:varchar(100);not null" json:"entity_type"`
	EntityID   *uint   `json:"entity_id,omitempty"`
	Metadata   JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	IPAddress  *string `gorm:"type:varchar(45)" json:"ip_address,omitempty"`

	PerformedByID uint  `gorm:"not null;index" json:"performed_by_id"`
	PerformedBy   *User `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
	UserID        *uint `gorm:"index" json:"user_id,omitempty"`
	User          *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
