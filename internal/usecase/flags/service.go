package flags

import (
	"context"
	"log/slog"
	"time"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/risk"
)

// Event kinds pushed to the compliance event stream.
const (
	EventFlagOpened   = "flag.opened"
	EventFlagResolved = "flag.resolved"
)

// Service is the audit flag ledger. Opening or resolving a finding always
// ends with a rescore of the owning vendor inside the same transaction;
// the scorer itself never touches the ledger.
type Service struct {
	vendors   ports.VendorRepository
	flags     ports.FlagRepository
	risk      *risk.Service
	uow       ports.UnitOfWork
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewService(
	vendors ports.VendorRepository,
	flagRepo ports.FlagRepository,
	riskSvc *risk.Service,
	uow ports.UnitOfWork,
	publisher ports.EventPublisher,
) *Service {
	return &Service{
		vendors:   vendors,
		flags:     flagRepo,
		risk:      riskSvc,
		uow:       uow,
		publisher: publisher,
		now:       time.Now,
	}
}

// Open records a manual compliance finding and rescores the vendor.
func (s *Service) Open(ctx context.Context, vendorID uint64, description, actor string) (ports.AuditFlag, error) {
	var flag ports.AuditFlag
	var score int
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
			return err
		}

		flag = ports.AuditFlag{
			VendorID:    vendorID,
			Reason:      compliance.ReasonManual,
			Description: description,
			CreatedBy:   actor,
			CreatedAt:   s.now().UTC(),
		}
		if _, err := s.flags.Create(ctx, &flag); err != nil {
			return errs.Wrap(err, "create flag")
		}

		result, err := s.risk.Rescore(ctx, vendorID, actor)
		if err != nil {
			return errs.Wrap(err, "rescore after flag open")
		}
		score = result.Score
		return nil
	})
	if err != nil {
		return ports.AuditFlag{}, err
	}

	s.publish(ctx, ports.ComplianceEvent{
		Kind:     EventFlagOpened,
		VendorID: vendorID,
		FlagID:   flag.ID,
		Reason:   string(flag.Reason),
		Score:    score,
		Actor:    actor,
	})
	return flag, nil
}

// Resolve closes a finding exactly once and rescores the owning vendor.
// A flag never transitions back to unresolved.
func (s *Service) Resolve(ctx context.Context, flagID uint64, actor string) (ports.AuditFlag, error) {
	var flag ports.AuditFlag
	var score int
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		var err error
		flag, err = s.flags.FindByID(ctx, flagID)
		if err != nil {
			return err
		}

		resolvedAt := s.now().UTC()
		if err := s.flags.MarkResolved(ctx, flagID, resolvedAt); err != nil {
			return err
		}
		flag.Resolved = true
		flag.ResolvedAt = &resolvedAt

		result, err := s.risk.Rescore(ctx, flag.VendorID, actor)
		if err != nil {
			return errs.Wrap(err, "rescore after flag resolve")
		}
		score = result.Score
		return nil
	})
	if err != nil {
		return ports.AuditFlag{}, err
	}

	s.publish(ctx, ports.ComplianceEvent{
		Kind:     EventFlagResolved,
		VendorID: flag.VendorID,
		FlagID:   flag.ID,
		Reason:   string(flag.Reason),
		Score:    score,
		Actor:    actor,
	})
	return flag, nil
}

func (s *Service) Unresolved(ctx context.Context, vendorID uint64) ([]ports.AuditFlag, error) {
	if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.flags.FindUnresolvedByVendor(ctx, vendorID)
}

// publish is best-effort: the mutation has already committed and the audit
// log is the durable record, so a failed publish is only logged.
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
