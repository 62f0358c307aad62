package model

import "time"

type AuditLog struct {
	ID        uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	Action    string  `gorm:"column:action;type:text;not null;index:idx_audit_logs_action"`
	Actor     string  `gorm:"column:actor;type:text;not null"`
	VendorID  *uint64 `gorm:"column:vendor_id;index:idx_audit_logs_vendor"`
	Details   string  `gorm:"column:details;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
