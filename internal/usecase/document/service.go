package document

import (
	"context"
	"time"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/audit"
	"vendorguard/internal/usecase/risk"
)

const (
	defaultFileName  = "document.bin"
	defaultMediaType = "application/octet-stream"
)

type UploadInput struct {
	Category   compliance.Category
	FileName   string
	MediaType  string
	Content    []byte
	ExpiryDate time.Time
}

// View annotates a stored document with its expiry status as of now.
type View struct {
	ports.VendorDocument
	Expired bool
}

// Service handles compliance document intake. Documents are immutable;
// a re-upload inserts a new row and supersedes older rows of the same
// category for scoring. Every upload ends with a rescore in the same
// transaction.
type Service struct {
	vendors   ports.VendorRepository
	documents ports.DocumentRepository
	blobs     ports.BlobStore
	audit     *audit.Service
	risk      *risk.Service
	uow       ports.UnitOfWork
	now       func() time.Time
}

func NewService(
	vendors ports.VendorRepository,
	documents ports.DocumentRepository,
	blobs ports.BlobStore,
	auditSvc *audit.Service,
	riskSvc *risk.Service,
	uow ports.UnitOfWork,
) *Service {
	return &Service{
		vendors:   vendors,
		documents: documents,
		blobs:     blobs,
		audit:     auditSvc,
		risk:      riskSvc,
		uow:       uow,
		now:       time.Now,
	}
}

func (s *Service) Upload(ctx context.Context, vendorID uint64, input UploadInput, actor string) (ports.VendorDocument, error) {
	if len(input.Content) == 0 {
		return ports.VendorDocument{}, errs.Wrap(compliance.ErrInvalidUpload, "document file is required")
	}
	if input.Category == "" {
		return ports.VendorDocument{}, errs.Wrap(compliance.ErrInvalidUpload, "document category is required")
	}
	if input.ExpiryDate.IsZero() {
		return ports.VendorDocument{}, errs.Wrap(compliance.ErrInvalidUpload, "expiry date is required")
	}

	fileName := input.FileName
	if fileName == "" {
		fileName = defaultFileName
	}
	mediaType := input.MediaType
	if mediaType == "" {
		mediaType = defaultMediaType
	}

	if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
		return ports.VendorDocument{}, err
	}

	// Content is written before the transaction opens, so a rollback can
	// never commit a row pointing at missing content. The failure mode is
	// an unreferenced blob left behind, which no row ever resolves.
	ref, err := s.blobs.Put(ctx, input.Content, fileName, mediaType)
	if err != nil {
		return ports.VendorDocument{}, errs.Wrap(err, "store document content")
	}

	var stored ports.VendorDocument
	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
			return err
		}

		d := ports.VendorDocument{
			VendorID:   vendorID,
			Category:   input.Category,
			FileName:   fileName,
			MediaType:  mediaType,
			BlobRef:    ref,
			ExpiryDate: input.ExpiryDate,
			UploadedBy: actor,
			UploadedAt: s.now().UTC(),
		}
		if err := s.documents.Create(ctx, &d); err != nil {
			return errs.Wrap(err, "create document")
		}
		if err := s.audit.DocumentUploaded(ctx, actor, vendorID, string(d.Category), d.FileName, d.ExpiryDate); err != nil {
			return errs.Wrap(err, "audit upload")
		}
		if _, err := s.risk.Rescore(ctx, vendorID, actor); err != nil {
			return errs.Wrap(err, "rescore after upload")
		}
		stored = d
		return nil
	})
	return stored, err
}

// Download returns one stored document together with its content. The
// vendor id must match the document's owner so a document cannot be read
// through another vendor's path.
func (s *Service) Download(ctx context.Context, vendorID, documentID uint64) (ports.VendorDocument, []byte, error) {
	d, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return ports.VendorDocument{}, nil, err
	}
	if d.VendorID != vendorID {
		return ports.VendorDocument{}, nil, errs.Wrapf(compliance.ErrNotFound, "document %d for vendor %d", documentID, vendorID)
	}

	content, err := s.blobs.Get(ctx, d.BlobRef)
	if err != nil {
		return ports.VendorDocument{}, nil, errs.Wrap(err, "read document content")
	}
	return d, content, nil
}

func (s *Service) List(ctx context.Context, vendorID uint64) ([]View, error) {
	if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}

	docs, err := s.documents.FindByVendorNewestFirst(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	views := make([]View, 0, len(docs))
	for _, d := range docs {
		views = append(views, View{
			VendorDocument: d,
			Expired:        d.ExpiryDate.Truncate(24 * time.Hour).Before(today),
		})
	}
	return views, nil
}
