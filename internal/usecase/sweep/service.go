package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/risk"
)

// SystemActor attributes sweep-created mutations in the audit trail.
const SystemActor = "SYSTEM"

// Report summarizes one sweep pass. Failed vendors do not abort the
// batch; partial completion is an expected outcome.
type Report struct {
	Scanned int
	Flagged int
	Skipped int
	Failed  int
}

// Service runs the two time-triggered jobs that keep scores consistent
// with time-dependent facts. Each vendor is processed in its own
// transaction so one failure rolls back only that vendor's work.
type Service struct {
	vendors   ports.VendorRepository
	documents ports.DocumentRepository
	flags     ports.FlagRepository
	risk      *risk.Service
	uow       ports.UnitOfWork
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewService(
	vendors ports.VendorRepository,
	documents ports.DocumentRepository,
	flagRepo ports.FlagRepository,
	riskSvc *risk.Service,
	uow ports.UnitOfWork,
	publisher ports.EventPublisher,
) *Service {
	return &Service{
		vendors:   vendors,
		documents: documents,
		flags:     flagRepo,
		risk:      riskSvc,
		uow:       uow,
		publisher: publisher,
		now:       time.Now,
	}
}

// ExpirySweep scans for approved vendors holding documents that expired on
// or before today and raises one EXPIRED_DOCUMENTS finding per vendor.
// The unresolved-flag check per (vendor, reason) makes a daily run
// idempotent: no duplicate flags accumulate while the prior one is open,
// and a resolved flag lets a later sweep re-flag newly expired documents.
func (s *Service) ExpirySweep(ctx context.Context) (Report, error) {
	today := s.now().UTC()
	expired, err := s.documents.FindExpiredAsOf(ctx, today)
	if err != nil {
		return Report{}, errs.Wrap(err, "query expired documents")
	}

	byVendor := make(map[uint64][]ports.VendorDocument)
	for _, d := range expired {
		byVendor[d.VendorID] = append(byVendor[d.VendorID], d)
	}

	vendorIDs := make([]uint64, 0, len(byVendor))
	for id := range byVendor {
		vendorIDs = append(vendorIDs, id)
	}
	sort.Slice(vendorIDs, func(i, j int) bool { return vendorIDs[i] < vendorIDs[j] })

	var report Report
	for _, vendorID := range vendorIDs {
		report.Scanned++
		flagged, err := s.flagExpiredVendor(ctx, vendorID, byVendor[vendorID])
		if err != nil {
			report.Failed++
			logging.Error(ctx, "expiry sweep vendor failed",
				slog.Uint64("vendor_id", vendorID),
				slog.Any("err", errs.Loggable(err)))
			continue
		}
		if flagged {
			report.Flagged++
		} else {
			report.Skipped++
		}
	}

	logging.Info(ctx, "expiry sweep completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("flagged", report.Flagged),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) flagExpiredVendor(ctx context.Context, vendorID uint64, docs []ports.VendorDocument) (bool, error) {
	var flag ports.AuditFlag
	var score int
	flagged := false
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		has, err := s.flags.HasUnresolved(ctx, vendorID, compliance.ReasonExpiredDocuments)
		if err != nil {
			return err
		}
		if has {
			return nil
		}

		// Vendor may have disappeared between the scan and this pass.
		if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
			if errors.Is(err, compliance.ErrNotFound) {
				return nil
			}
			return err
		}

		flag = ports.AuditFlag{
			VendorID:    vendorID,
			Reason:      compliance.ReasonExpiredDocuments,
			Description: "Expired documents detected: " + joinCategories(docs),
			CreatedBy:   SystemActor,
			CreatedAt:   s.now().UTC(),
		}
		created, err := s.flags.Create(ctx, &flag)
		if err != nil {
			return errs.Wrap(err, "create expiry flag")
		}
		if !created {
			// Lost the race against a concurrent pass; the flag exists.
			return nil
		}

		result, err := s.risk.Rescore(ctx, vendorID, SystemActor)
		if err != nil {
			return errs.Wrap(err, "rescore after expiry flag")
		}
		score = result.Score
		flagged = true
		return nil
	})
	if err != nil || !flagged {
		return false, err
	}

	s.publish(ctx, ports.ComplianceEvent{
		Kind:     "flag.opened",
		VendorID: vendorID,
		FlagID:   flag.ID,
		Reason:   string(compliance.ReasonExpiredDocuments),
		Score:    score,
		Actor:    SystemActor,
	})
	return true, nil
}

// HighRiskSweep flags vendors at or above the risk threshold. It records
// the already-computed score and deliberately does not rescore: scoring
// does not depend on whether a HIGH_RISK flag exists yet, and rescoring
// here would close the flag-to-score feedback loop in the wrong direction.
func (s *Service) HighRiskSweep(ctx context.Context) (Report, error) {
	vendors, err := s.vendors.FindByRiskScoreAtLeast(ctx, compliance.HighRiskThreshold)
	if err != nil {
		return Report{}, errs.Wrap(err, "query high risk vendors")
	}

	var report Report
	for _, v := range vendors {
		report.Scanned++
		flagged, err := s.flagHighRiskVendor(ctx, v)
		if err != nil {
			report.Failed++
			logging.Error(ctx, "high risk sweep vendor failed",
				slog.Uint64("vendor_id", v.ID),
				slog.Any("err", errs.Loggable(err)))
			continue
		}
		if flagged {
			report.Flagged++
		} else {
			report.Skipped++
		}
	}

	logging.Info(ctx, "high risk sweep completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("flagged", report.Flagged),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) flagHighRiskVendor(ctx context.Context, v ports.Vendor) (bool, error) {
	var flag ports.AuditFlag
	flagged := false
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		has, err := s.flags.HasUnresolved(ctx, v.ID, compliance.ReasonHighRisk)
		if err != nil {
			return err
		}
		if has {
			return nil
		}

		flag = ports.AuditFlag{
			VendorID:    v.ID,
			Reason:      compliance.ReasonHighRisk,
			Description: fmt.Sprintf("Vendor risk score exceeded threshold: %d/100", v.RiskScore),
			CreatedBy:   SystemActor,
			CreatedAt:   s.now().UTC(),
		}
		created, err := s.flags.Create(ctx, &flag)
		if err != nil {
			return errs.Wrap(err, "create high risk flag")
		}
		flagged = created
		return nil
	})
	if err != nil || !flagged {
		return false, err
	}

	s.publish(ctx, ports.ComplianceEvent{
		Kind:     "flag.opened",
		VendorID: v.ID,
		FlagID:   flag.ID,
		Reason:   string(compliance.ReasonHighRisk),
		Score:    v.RiskScore,
		Actor:    SystemActor,
	})
	return true, nil
}

func (s *Service) publish(ctx context.Context, event ports.ComplianceEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logging.Warn(ctx, "publish compliance event failed",
			slog.String("kind", event.Kind),
			slog.Any("err", errs.Loggable(err)))
	}
}

func joinCategories(docs []ports.VendorDocument) string {
	seen := make(map[compliance.Category]struct{}, len(docs))
	var categories []string
	for _, d := range docs {
		if _, ok := seen[d.Category]; ok {
			continue
		}
		seen[d.Category] = struct{}{}
		categories = append(categories, string(d.Category))
	}
	sort.Strings(categories)
	return strings.Join(categories, ", ")
}
