package ports

import (
	"context"
	"time"

	"vendorguard/internal/domain/compliance"
)

// Vendor is the repository-level vendor record.
type Vendor struct {
	ID                   uint64
	LegalName            string
	TradingName          string
	RegistrationNumber   string
	Email                string
	Phone                string
	Address              string
	Status               compliance.Status
	RiskScore            int
	LastRiskCalculatedAt *time.Time
	OnboardingNotes      string
	CreatedBy            string
	UpdatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// VendorDocument rows are immutable; a re-upload inserts a new row and the
// newest row per category is the live one for scoring.
type VendorDocument struct {
	ID         uint64
	VendorID   uint64
	Category   compliance.Category
	FileName   string
	MediaType  string
	BlobRef    string
	ExpiryDate time.Time
	UploadedBy string
	UploadedAt time.Time
}

type AuditFlag struct {
	ID          uint64
	VendorID    uint64
	Reason      compliance.FlagReason
	Description string
	Resolved    bool
	ResolvedAt  *time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

type AuditLogEntry struct {
	ID        uint64
	Action    string
	Actor     string
	VendorID  *uint64
	Details   string
	CreatedAt time.Time
}

type AuditLogFilter struct {
	VendorID *uint64
	Action   string
}

// VendorRepository stores vendor records. FindByID returns
// compliance.ErrNotFound when the id does not resolve.
type VendorRepository interface {
	Create(ctx context.Context, v *Vendor) error
	Update(ctx context.Context, v *Vendor) error
	FindByID(ctx context.Context, id uint64) (Vendor, error)
	List(ctx context.Context, status *compliance.Status) ([]Vendor, error)
	ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error)
	FindByRiskScoreAtLeast(ctx context.Context, threshold int) ([]Vendor, error)
	// SetRiskScore writes the scorer output onto the vendor row. No other
	// path may touch the risk score columns.
	SetRiskScore(ctx context.Context, vendorID uint64, score int, at time.Time) error
}

type DocumentRepository interface {
	Create(ctx context.Context, d *VendorDocument) error
	FindByID(ctx context.Context, id uint64) (VendorDocument, error)
	FindByVendorNewestFirst(ctx context.Context, vendorID uint64) ([]VendorDocument, error)
	// FindExpiredAsOf returns documents with expiry_date <= asOf whose
	// owning vendor is APPROVED.
	FindExpiredAsOf(ctx context.Context, asOf time.Time) ([]VendorDocument, error)
}

type FlagRepository interface {
	// Create inserts an unresolved flag. For sweep reasons the store holds
	// at most one unresolved flag per (vendor, reason); Create reports
	// created=false when that slot is already taken.
	Create(ctx context.Context, f *AuditFlag) (created bool, err error)
	FindByID(ctx context.Context, id uint64) (AuditFlag, error)
	MarkResolved(ctx context.Context, id uint64, at time.Time) error
	FindUnresolvedByVendor(ctx context.Context, vendorID uint64) ([]AuditFlag, error)
	CountUnresolvedByVendor(ctx context.Context, vendorID uint64) (int64, error)
	HasUnresolved(ctx context.Context, vendorID uint64, reason compliance.FlagReason) (bool, error)
}

// AuditLogRepository is the append-only compliance trail. Append runs
// through the ambient transaction so entries commit with the mutation
// they describe.
type AuditLogRepository interface {
	Append(ctx context.Context, e *AuditLogEntry) error
	Query(ctx context.Context, filter AuditLogFilter) ([]AuditLogEntry, error)
}
