package model

import "time"

type AuditFlag struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	VendorID    uint64     `gorm:"column:vendor_id;not null;index:idx_flags_vendor"`
	Reason      string     `gorm:"column:reason;type:text;not null"`
	Description string     `gorm:"column:description;type:text;not null"`
	Resolved    bool       `gorm:"column:resolved;not null;default:0"`
	ResolvedAt  *time.Time `gorm:"column:resolved_at"`
	CreatedBy   string     `gorm:"column:created_by;type:text;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
}

func (AuditFlag) TableName() string {
	return "audit_flags"
}
