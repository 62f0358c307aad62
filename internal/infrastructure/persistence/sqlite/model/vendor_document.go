package model

import "time"

// VendorDocument rows are write-once. Re-uploads insert a new row; history
// is retained and only the newest row per category feeds scoring.
type VendorDocument struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	VendorID   uint64    `gorm:"column:vendor_id;not null;index:idx_documents_vendor"`
	Category   string    `gorm:"column:category;type:text;not null"`
	FileName   string    `gorm:"column:file_name;type:text;not null"`
	MediaType  string    `gorm:"column:media_type;type:text;not null"`
	BlobRef    string    `gorm:"column:blob_ref;type:text;not null"`
	ExpiryDate time.Time `gorm:"column:expiry_date;not null;index:idx_documents_expiry"`
	UploadedBy string    `gorm:"column:uploaded_by;type:text;not null"`
	UploadedAt time.Time `gorm:"column:uploaded_at;not null"`
}

func (VendorDocument) TableName() string {
	return "vendor_documents"
}
