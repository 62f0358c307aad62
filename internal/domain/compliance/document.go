package compliance

import (
	"strings"
	"time"
)

// Category identifies a required compliance document kind. The required
// set is configuration, not a compiled-in enum, so deployments can change
// it without touching scoring logic.
type Category string

// DefaultRequiredCategories is the standard onboarding document set.
var DefaultRequiredCategories = []Category{
	"BUSINESS_LICENSE",
	"TAX_CLEARANCE",
	"INSURANCE_CERTIFICATE",
	"FINANCIAL_STATEMENT",
	"DATA_PROTECTION_POLICY",
}

func NormalizeCategory(s string) Category {
	return Category(strings.ToUpper(strings.TrimSpace(s)))
}

// Document is the scoring-relevant view of a stored vendor document.
type Document struct {
	Category   Category
	ExpiryDate time.Time
	UploadedAt time.Time
}

// Freshness classifies each required category for one vendor. Categories
// that are neither missing nor expired hold a current document.
type Freshness struct {
	Missing []Category
	Expired []Category
}

// EvaluateFreshness reduces docs to the latest submission per category and
// classifies every required category. docs must be ordered most recent
// upload first; the first document seen per category wins, so a re-upload
// supersedes older rows without deleting them.
func EvaluateFreshness(required []Category, docs []Document, today time.Time) Freshness {
	latest := make(map[Category]Document, len(required))
	for _, d := range docs {
		if _, ok := latest[d.Category]; !ok {
			latest[d.Category] = d
		}
	}

	day := today.Truncate(24 * time.Hour)
	var f Freshness
	for _, c := range required {
		d, ok := latest[c]
		switch {
		case !ok:
			f.Missing = append(f.Missing, c)
		case d.ExpiryDate.Truncate(24 * time.Hour).Before(day):
			f.Expired = append(f.Expired, c)
		}
	}
	return f
}
