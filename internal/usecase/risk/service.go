package risk

import (
	"context"
	"time"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/audit"
)

// Result is one scorer run. Missing and Expired list the required
// categories without a current document at evaluation time.
type Result struct {
	VendorID    uint64
	Score       int
	Level       compliance.Level
	Missing     []compliance.Category
	Expired     []compliance.Category
	EvaluatedAt time.Time
}

// Service derives the vendor risk score from document freshness and open
// audit findings, and is the only writer of the score columns. It never
// creates or resolves flags; the flag ledger calls into the scorer, not
// the other way around, which keeps the feedback loop one-directional.
type Service struct {
	vendors   ports.VendorRepository
	documents ports.DocumentRepository
	flags     ports.FlagRepository
	audit     *audit.Service
	uow       ports.UnitOfWork
	required  []compliance.Category
	now       func() time.Time
}

func NewService(
	vendors ports.VendorRepository,
	documents ports.DocumentRepository,
	flags ports.FlagRepository,
	auditSvc *audit.Service,
	uow ports.UnitOfWork,
	required []compliance.Category,
) *Service {
	return &Service{
		vendors:   vendors,
		documents: documents,
		flags:     flags,
		audit:     auditSvc,
		uow:       uow,
		required:  required,
		now:       time.Now,
	}
}

// Score runs the scorer as its own unit of work. Idempotent: two runs with
// no intervening mutation produce the same score and level.
func (s *Service) Score(ctx context.Context, vendorID uint64, actor string) (Result, error) {
	var result Result
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.Rescore(ctx, vendorID, actor)
		return err
	})
	return result, err
}

// Rescore joins the caller's transaction. Mutation paths (upload, flag
// open/resolve, expiry sweep) call this as the terminal step of their own
// unit of work so the new score commits with the mutation.
func (s *Service) Rescore(ctx context.Context, vendorID uint64, actor string) (Result, error) {
	if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
		return Result{}, err
	}

	docs, err := s.documents.FindByVendorNewestFirst(ctx, vendorID)
	if err != nil {
		return Result{}, errs.Wrap(err, "load documents for scoring")
	}

	scoringDocs := make([]compliance.Document, 0, len(docs))
	for _, d := range docs {
		scoringDocs = append(scoringDocs, compliance.Document{
			Category:   d.Category,
			ExpiryDate: d.ExpiryDate,
			UploadedAt: d.UploadedAt,
		})
	}

	evaluatedAt := s.now().UTC()
	freshness := compliance.EvaluateFreshness(s.required, scoringDocs, evaluatedAt)

	openFlags, err := s.flags.CountUnresolvedByVendor(ctx, vendorID)
	if err != nil {
		return Result{}, errs.Wrap(err, "count open flags for scoring")
	}

	score := compliance.ComputeScore(len(freshness.Missing), len(freshness.Expired), openFlags)

	if err := s.vendors.SetRiskScore(ctx, vendorID, score, evaluatedAt); err != nil {
		return Result{}, errs.Wrap(err, "persist risk score")
	}
	if err := s.audit.RiskScoreCalculated(ctx, actor, vendorID, score, len(freshness.Missing), len(freshness.Expired)); err != nil {
		return Result{}, errs.Wrap(err, "audit risk score")
	}

	return Result{
		VendorID:    vendorID,
		Score:       score,
		Level:       compliance.LevelFor(score),
		Missing:     freshness.Missing,
		Expired:     freshness.Expired,
		EvaluatedAt: evaluatedAt,
	}, nil
}
