package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/infrastructure/blob"
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
	audits  *sqliterepo.AuditLogRepository
	blobs   *blob.FSStore
	blobDir string
	risk    *risk.Service
	uow     ports.UnitOfWork
	now     time.Time
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:document_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
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

	blobDir := t.TempDir()
	blobs, err := blob.NewFSStore(blobDir)
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	f := &fixture{
		vendors: sqliterepo.NewVendorRepository(db),
		docs:    sqliterepo.NewDocumentRepository(db),
		audits:  sqliterepo.NewAuditLogRepository(db),
		blobs:   blobs,
		blobDir: blobDir,
		// The risk service reads the real clock for freshness, so expiry
		// dates in these tests are relative to it.
		now: time.Now().UTC(),
	}

	flags := sqliterepo.NewFlagRepository(db)
	f.uow = sqliteuow.NewUnitOfWork(db)
	auditSvc := audit.NewService(f.audits)
	f.risk = risk.NewService(f.vendors, f.docs, flags, auditSvc, f.uow, compliance.DefaultRequiredCategories)

	f.svc = NewService(f.vendors, f.docs, blobs, auditSvc, f.risk, f.uow)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) createVendor(t *testing.T) uint64 {
	t.Helper()
	v := ports.Vendor{
		LegalName:          "Acme Ltd",
		RegistrationNumber: fmt.Sprintf("REG-%d", time.Now().UnixNano()),
		Status:             compliance.StatusApproved,
		CreatedBy:          "tester",
		UpdatedBy:          "tester",
	}
	if err := f.vendors.Create(context.Background(), &v); err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return v.ID
}

func validInput(category compliance.Category, expiry time.Time) UploadInput {
	return UploadInput{
		Category:   category,
		FileName:   "license.pdf",
		MediaType:  "application/pdf",
		Content:    []byte("pdf bytes"),
		ExpiryDate: expiry,
	}
}

func TestUploadValidation(t *testing.T) {
	f := setupService(t)
	vendorID := f.createVendor(t)
	expiry := f.now.AddDate(1, 0, 0)

	cases := []struct {
		name  string
		input UploadInput
	}{
		{"empty content", UploadInput{Category: "BUSINESS_LICENSE", ExpiryDate: expiry}},
		{"missing category", UploadInput{Content: []byte("x"), ExpiryDate: expiry}},
		{"missing expiry", UploadInput{Category: "BUSINESS_LICENSE", Content: []byte("x")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), vendorID, tc.input, "officer")
			if !errors.Is(err, compliance.ErrInvalidUpload) {
				t.Fatalf("err = %v, want ErrInvalidUpload", err)
			}
		})
	}
}

func TestUploadUnknownVendor(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Upload(context.Background(), 999, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer")
	if !errors.Is(err, compliance.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadStoresContentAndRescores(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t)

	d, err := f.svc.Upload(ctx, vendorID, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if d.ID == 0 || d.BlobRef == "" {
		t.Fatalf("document not persisted: %+v", d)
	}

	content, err := f.blobs.Get(ctx, d.BlobRef)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(content, []byte("pdf bytes")) {
		t.Fatalf("blob content = %q", content)
	}

	// 4 of 5 required categories still missing after the upload.
	v, err := f.vendors.FindByID(ctx, vendorID)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 80 {
		t.Fatalf("risk score = %d, want 80", v.RiskScore)
	}

	entries, err := f.audits.Query(ctx, ports.AuditLogFilter{VendorID: &vendorID, Action: audit.ActionDocumentUploaded})
	if err != nil || len(entries) != 1 {
		t.Fatalf("audit entries = %+v (err=%v), want one DOCUMENT_UPLOADED", entries, err)
	}
}

func TestUploadDefaultsFileNameAndMediaType(t *testing.T) {
	f := setupService(t)
	vendorID := f.createVendor(t)

	input := validInput("TAX_CLEARANCE", f.now.AddDate(1, 0, 0))
	input.FileName = ""
	input.MediaType = ""

	d, err := f.svc.Upload(context.Background(), vendorID, input, "officer")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if d.FileName != "document.bin" {
		t.Fatalf("file name = %q, want document.bin", d.FileName)
	}
	if d.MediaType != "application/octet-stream" {
		t.Fatalf("media type = %q, want application/octet-stream", d.MediaType)
	}
}

func TestReuploadSupersedesForScoring(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t)

	// Expired license: 4 missing + 1 expired saturates the score.
	if _, err := f.svc.Upload(ctx, vendorID, validInput("BUSINESS_LICENSE", f.now.AddDate(0, 0, -30)), "officer"); err != nil {
		t.Fatalf("upload expired: %v", err)
	}
	v, err := f.vendors.FindByID(ctx, vendorID)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 100 {
		t.Fatalf("risk score = %d, want 100", v.RiskScore)
	}

	// The renewal uploaded later shadows the expired row without deleting it.
	f.now = f.now.Add(time.Hour)
	if _, err := f.svc.Upload(ctx, vendorID, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer"); err != nil {
		t.Fatalf("upload renewal: %v", err)
	}
	v, err = f.vendors.FindByID(ctx, vendorID)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 80 {
		t.Fatalf("risk score = %d, want 80", v.RiskScore)
	}

	views, err := f.svc.List(ctx, vendorID)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("documents = %d, want both rows kept", len(views))
	}
	if views[0].Expired {
		t.Fatal("newest document marked expired")
	}
	if !views[1].Expired {
		t.Fatal("superseded document not marked expired")
	}
}

type faultyDocumentRepo struct {
	ports.DocumentRepository
}

func (faultyDocumentRepo) Create(context.Context, *ports.VendorDocument) error {
	return errors.New("document store unavailable")
}

func TestFailedUploadCommitsNoRow(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t)

	auditSvc := audit.NewService(f.audits)
	broken := NewService(f.vendors, faultyDocumentRepo{f.docs}, f.blobs, auditSvc, f.risk, f.uow)

	_, err := broken.Upload(ctx, vendorID, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer")
	if err == nil {
		t.Fatal("upload succeeded against a broken document store")
	}

	// The rollback left neither a document row nor a score change; only
	// the pre-transaction blob write remains, unreferenced.
	views, err := f.svc.List(ctx, vendorID)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("documents = %d, want none", len(views))
	}
	v, err := f.vendors.FindByID(ctx, vendorID)
	if err != nil {
		t.Fatalf("reload vendor: %v", err)
	}
	if v.RiskScore != 0 {
		t.Fatalf("risk score = %d, want 0 untouched", v.RiskScore)
	}

	orphans, err := os.ReadDir(f.blobDir)
	if err != nil {
		t.Fatalf("read blob dir: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("blobs = %d, want the single orphaned write", len(orphans))
	}
}

func TestDownloadReturnsStoredContent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t)

	d, err := f.svc.Upload(ctx, vendorID, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, content, err := f.svc.Download(ctx, vendorID, d.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(content, []byte("pdf bytes")) {
		t.Fatalf("content = %q", content)
	}
	if got.FileName != "license.pdf" || got.MediaType != "application/pdf" {
		t.Fatalf("document = %+v", got)
	}
}

func TestDownloadRejectsForeignVendor(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.createVendor(t)
	other := f.createVendor(t)

	d, err := f.svc.Upload(ctx, owner, validInput("BUSINESS_LICENSE", f.now.AddDate(1, 0, 0)), "officer")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, _, err = f.svc.Download(ctx, other, d.ID)
	if !errors.Is(err, compliance.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, _, err = f.svc.Download(ctx, owner, 999)
	if !errors.Is(err, compliance.ErrNotFound) {
		t.Fatalf("unknown document err = %v, want ErrNotFound", err)
	}
}

func TestListUnknownVendor(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.List(context.Background(), 999)
	if !errors.Is(err, compliance.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
