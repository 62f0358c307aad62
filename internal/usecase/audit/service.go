package audit

import (
	"context"
	"fmt"
	"time"

	"vendorguard/internal/ports"
)

// Action kinds recorded in the compliance trail.
const (
	ActionVendorOnboardSubmitted = "VENDOR_ONBOARD_SUBMITTED"
	ActionVendorApproved         = "VENDOR_APPROVED"
	ActionVendorRejected         = "VENDOR_REJECTED"
	ActionDocumentUploaded       = "DOCUMENT_UPLOADED"
	ActionRiskScoreCalculated    = "RISK_SCORE_CALCULATED"

	// ActionLogin is written by the authentication boundary upstream of
	// this engine; it is listed here so Query filters cover it.
	ActionLogin = "LOGIN"
)

// Service appends to and queries the append-only audit trail. Appends run
// through the ambient transaction, so an entry is durable exactly when the
// mutation it describes commits.
type Service struct {
	repo ports.AuditLogRepository
	now  func() time.Time
}

func NewService(repo ports.AuditLogRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) append(ctx context.Context, action, actor string, vendorID *uint64, details string) error {
	return s.repo.Append(ctx, &ports.AuditLogEntry{
		Action:    action,
		Actor:     actor,
		VendorID:  vendorID,
		Details:   details,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Service) VendorOnboardSubmitted(ctx context.Context, actor string, vendorID uint64) error {
	return s.append(ctx, ActionVendorOnboardSubmitted, actor, &vendorID,
		"Vendor onboarding submitted with status PENDING")
}

func (s *Service) VendorApproved(ctx context.Context, actor string, vendorID uint64, comments string) error {
	return s.append(ctx, ActionVendorApproved, actor, &vendorID, comments)
}

func (s *Service) VendorRejected(ctx context.Context, actor string, vendorID uint64, comments string) error {
	return s.append(ctx, ActionVendorRejected, actor, &vendorID, comments)
}

func (s *Service) DocumentUploaded(ctx context.Context, actor string, vendorID uint64, category, fileName string, expiry time.Time) error {
	details := fmt.Sprintf("Document uploaded: category=%s, fileName=%s, expiryDate=%s",
		category, fileName, expiry.Format("2006-01-02"))
	return s.append(ctx, ActionDocumentUploaded, actor, &vendorID, details)
}

func (s *Service) RiskScoreCalculated(ctx context.Context, actor string, vendorID uint64, score, missing, expired int) error {
	details := fmt.Sprintf("Risk calculated: riskScore=%d, missingDocuments=%d, expiredDocuments=%d",
		score, missing, expired)
	return s.append(ctx, ActionRiskScoreCalculated, actor, &vendorID, details)
}

func (s *Service) Query(ctx context.Context, filter ports.AuditLogFilter) ([]ports.AuditLogEntry, error) {
	return s.repo.Query(ctx, filter)
}
