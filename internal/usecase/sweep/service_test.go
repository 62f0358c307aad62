package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "vendorguard/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "vendorguard/internal/infrastructure/persistence/sqlite/uow"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/audit"
	"vendorguard/internal/usecase/risk"
)

var dbSeq atomic.Int64

type fixture struct {
	svc     *Service
	vendors *sqliterepo.VendorRepository
	docs    *sqliterepo.DocumentRepository
	flags   *sqliterepo.FlagRepository
	risk    *risk.Service
	uow     ports.UnitOfWork
}

// setupService scores against a single required category so the expected
// numbers stay small: 30 per expired license, 25 per open flag.
func setupService(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:sweep_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Vendor{},
		&model.VendorDocument{},
		&model.AuditFlag{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_flags_open_sweep_reason
		ON audit_flags (vendor_id, reason)
		WHERE resolved = 0 AND reason IN ('EXPIRED_DOCUMENTS', 'HIGH_RISK')
	`).Error; err != nil {
		t.Fatalf("create sweep flag index: %v", err)
	}

	f := &fixture{
		vendors: sqliterepo.NewVendorRepository(db),
		docs:    sqliterepo.NewDocumentRepository(db),
		flags:   sqliterepo.NewFlagRepository(db),
	}

	f.uow = sqliteuow.NewUnitOfWork(db)
	auditSvc := audit.NewService(sqliterepo.NewAuditLogRepository(db))
	required := []compliance.Category{"BUSINESS_LICENSE"}
	f.risk = risk.NewService(f.vendors, f.docs, f.flags, auditSvc, f.uow, required)

	f.svc = NewService(f.vendors, f.docs, f.flags, f.risk, f.uow, nil)
	return f
}

// faultyFlagRepo fails the ledger check for one vendor so a sweep pass
// can be exercised with a mix of healthy and broken vendors.
type faultyFlagRepo struct {
	ports.FlagRepository
	failVendorID uint64
}

func (r *faultyFlagRepo) HasUnresolved(ctx context.Context, vendorID uint64, reason compliance.FlagReason) (bool, error) {
	if vendorID == r.failVendorID {
		return false, errors.New("flag store unavailable")
	}
	return r.FlagRepository.HasUnresolved(ctx, vendorID, reason)
}

func (f *fixture) createVendor(t *testing.T, status compliance.Status) uint64 {
	t.Helper()
	v := ports.Vendor{
		LegalName:          "Acme Ltd",
		RegistrationNumber: fmt.Sprintf("REG-%d", dbSeq.Add(1)),
		Status:             status,
		CreatedBy:          "tester",
		UpdatedBy:          "tester",
	}
	if err := f.vendors.Create(context.Background(), &v); err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return v.ID
}

func (f *fixture) addDocument(t *testing.T, vendorID uint64, category compliance.Category, expiry time.Time) {
	t.Helper()
	d := ports.VendorDocument{
		VendorID:   vendorID,
		Category:   category,
		FileName:   "document.bin",
		MediaType:  "application/octet-stream",
		BlobRef:    fmt.Sprintf("blob-%d", dbSeq.Add(1)),
		ExpiryDate: expiry,
		UploadedBy: "tester",
		UploadedAt: time.Now().UTC(),
	}
	if err := f.docs.Create(context.Background(), &d); err != nil {
		t.Fatalf("create document: %v", err)
	}
}

func TestExpirySweepFlagsApprovedVendor(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))

	report, err := f.svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if report.Scanned != 1 || report.Flagged != 1 {
		t.Fatalf("report = %+v, want one scanned and flagged", report)
	}

	open, err := f.flags.FindUnresolvedByVendor(ctx, vendorID)
	if err != nil || len(open) != 1 {
		t.Fatalf("open flags = %+v (err=%v), want 1", open, err)
	}
	flag := open[0]
	if flag.Reason != compliance.ReasonExpiredDocuments {
		t.Fatalf("reason = %s, want EXPIRED_DOCUMENTS", flag.Reason)
	}
	if flag.CreatedBy != SystemActor {
		t.Fatalf("created by = %q, want %q", flag.CreatedBy, SystemActor)
	}
	if flag.Description != "Expired documents detected: BUSINESS_LICENSE" {
		t.Fatalf("description = %q", flag.Description)
	}

	// Rescore ran in the same pass: 1 expired + 1 open flag.
	v, err := f.vendors.FindByID(ctx, vendorID)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 55 {
		t.Fatalf("risk score = %d, want 55", v.RiskScore)
	}
}

func TestExpirySweepIdempotentWhileFlagOpen(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))

	if _, err := f.svc.ExpirySweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	report, err := f.svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if report.Scanned != 1 || report.Skipped != 1 || report.Flagged != 0 {
		t.Fatalf("second report = %+v, want the vendor skipped", report)
	}

	open, err := f.flags.FindUnresolvedByVendor(ctx, vendorID)
	if err != nil || len(open) != 1 {
		t.Fatalf("open flags = %+v (err=%v), want exactly 1", open, err)
	}
}

func TestExpirySweepReflagsAfterResolve(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))

	if _, err := f.svc.ExpirySweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	open, err := f.flags.FindUnresolvedByVendor(ctx, vendorID)
	if err != nil || len(open) != 1 {
		t.Fatalf("open flags = %+v (err=%v)", open, err)
	}
	if err := f.flags.MarkResolved(ctx, open[0].ID, time.Now().UTC()); err != nil {
		t.Fatalf("resolve flag: %v", err)
	}

	report, err := f.svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if report.Flagged != 1 {
		t.Fatalf("report = %+v, want a fresh flag after resolve", report)
	}
}

func TestExpirySweepIgnoresUnapprovedVendors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	pending := f.createVendor(t, compliance.StatusPending)
	rejected := f.createVendor(t, compliance.StatusRejected)
	f.addDocument(t, pending, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))
	f.addDocument(t, rejected, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))

	report, err := f.svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if report.Scanned != 0 {
		t.Fatalf("report = %+v, want nothing scanned", report)
	}
}

func TestExpirySweepIncludesSameDayExpiry(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", time.Now().UTC().Truncate(24*time.Hour))

	report, err := f.svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if report.Flagged != 1 {
		t.Fatalf("report = %+v, want same-day expiry flagged", report)
	}
}

func TestExpirySweepListsDistinctCategories(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	past := time.Now().UTC().AddDate(0, 0, -30)
	f.addDocument(t, vendorID, "TAX_CLEARANCE", past)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", past)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", past.AddDate(0, 0, -1))

	if _, err := f.svc.ExpirySweep(ctx); err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	open, err := f.flags.FindUnresolvedByVendor(ctx, vendorID)
	if err != nil || len(open) != 1 {
		t.Fatalf("open flags = %+v (err=%v)", open, err)
	}
	want := "Expired documents detected: BUSINESS_LICENSE, TAX_CLEARANCE"
	if open[0].Description != want {
		t.Fatalf("description = %q, want %q", open[0].Description, want)
	}
	if strings.Count(open[0].Description, "BUSINESS_LICENSE") != 1 {
		t.Fatalf("duplicate category in %q", open[0].Description)
	}
}

func TestExpirySweepIsolatesVendorFailures(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	broken := f.createVendor(t, compliance.StatusApproved)
	healthy := f.createVendor(t, compliance.StatusApproved)
	past := time.Now().UTC().AddDate(0, 0, -30)
	f.addDocument(t, broken, "BUSINESS_LICENSE", past)
	f.addDocument(t, healthy, "BUSINESS_LICENSE", past)

	svc := NewService(f.vendors, f.docs, &faultyFlagRepo{FlagRepository: f.flags, failVendorID: broken}, f.risk, f.uow, nil)

	report, err := svc.ExpirySweep(ctx)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if report.Scanned != 2 || report.Failed != 1 || report.Flagged != 1 {
		t.Fatalf("report = %+v, want 2 scanned with 1 failed and 1 flagged", report)
	}

	// The broken vendor's pass rolled back alone; the healthy vendor in
	// the same batch is still flagged.
	open, err := f.flags.FindUnresolvedByVendor(ctx, healthy)
	if err != nil || len(open) != 1 {
		t.Fatalf("healthy vendor flags = %+v (err=%v), want 1", open, err)
	}
	brokenFlags, err := f.flags.FindUnresolvedByVendor(ctx, broken)
	if err != nil || len(brokenFlags) != 0 {
		t.Fatalf("broken vendor flags = %+v (err=%v), want none", brokenFlags, err)
	}
}

func TestHighRiskSweepIsolatesVendorFailures(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	broken := f.createVendor(t, compliance.StatusApproved)
	healthy := f.createVendor(t, compliance.StatusApproved)
	now := time.Now().UTC()
	if err := f.vendors.SetRiskScore(ctx, broken, 80, now); err != nil {
		t.Fatalf("set risk score: %v", err)
	}
	if err := f.vendors.SetRiskScore(ctx, healthy, 80, now); err != nil {
		t.Fatalf("set risk score: %v", err)
	}

	svc := NewService(f.vendors, f.docs, &faultyFlagRepo{FlagRepository: f.flags, failVendorID: broken}, f.risk, f.uow, nil)

	report, err := svc.HighRiskSweep(ctx)
	if err != nil {
		t.Fatalf("high risk sweep: %v", err)
	}
	if report.Scanned != 2 || report.Failed != 1 || report.Flagged != 1 {
		t.Fatalf("report = %+v, want 2 scanned with 1 failed and 1 flagged", report)
	}

	open, err := f.flags.FindUnresolvedByVendor(ctx, healthy)
	if err != nil || len(open) != 1 {
		t.Fatalf("healthy vendor flags = %+v (err=%v), want 1", open, err)
	}
}

func TestHighRiskSweepFlagsWithoutRescoring(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	hot := f.createVendor(t, compliance.StatusApproved)
	cold := f.createVendor(t, compliance.StatusApproved)
	now := time.Now().UTC()
	if err := f.vendors.SetRiskScore(ctx, hot, 72, now); err != nil {
		t.Fatalf("set risk score: %v", err)
	}
	if err := f.vendors.SetRiskScore(ctx, cold, 59, now); err != nil {
		t.Fatalf("set risk score: %v", err)
	}

	report, err := f.svc.HighRiskSweep(ctx)
	if err != nil {
		t.Fatalf("high risk sweep: %v", err)
	}
	if report.Scanned != 1 || report.Flagged != 1 {
		t.Fatalf("report = %+v, want only the vendor at 72 flagged", report)
	}

	open, err := f.flags.FindUnresolvedByVendor(ctx, hot)
	if err != nil || len(open) != 1 {
		t.Fatalf("open flags = %+v (err=%v)", open, err)
	}
	if open[0].Reason != compliance.ReasonHighRisk {
		t.Fatalf("reason = %s, want HIGH_RISK", open[0].Reason)
	}
	if open[0].Description != "Vendor risk score exceeded threshold: 72/100" {
		t.Fatalf("description = %q", open[0].Description)
	}

	// No rescore: the recorded score stays at the value that tripped
	// the threshold even though a new flag now exists.
	v, err := f.vendors.FindByID(ctx, hot)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 72 {
		t.Fatalf("risk score = %d, want 72 untouched", v.RiskScore)
	}

	coldFlags, err := f.flags.FindUnresolvedByVendor(ctx, cold)
	if err != nil || len(coldFlags) != 0 {
		t.Fatalf("cold vendor flags = %+v (err=%v), want none", coldFlags, err)
	}
}

func TestHighRiskSweepSkipsOpenFlag(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	if err := f.vendors.SetRiskScore(ctx, vendorID, 80, time.Now().UTC()); err != nil {
		t.Fatalf("set risk score: %v", err)
	}

	if _, err := f.svc.HighRiskSweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	report, err := f.svc.HighRiskSweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if report.Scanned != 1 || report.Skipped != 1 {
		t.Fatalf("second report = %+v, want the vendor skipped", report)
	}
}
