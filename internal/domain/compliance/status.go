package compliance

import (
	"fmt"
	"strings"
)

// Status is the vendor lifecycle state. Vendors are created PENDING and
// move to APPROVED or REJECTED by an explicit review decision.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown vendor status %q", s)
	}
}

// CheckTransition validates a review decision. Only APPROVED and REJECTED
// are decision targets, and re-applying the current status is an error
// rather than a silent no-op.
func CheckTransition(current, target Status) error {
	if target != StatusApproved && target != StatusRejected {
		return fmt.Errorf("%w: %s is not a decision target", ErrInvalidTransition, target)
	}
	if current == target {
		return fmt.Errorf("%w: vendor is already %s", ErrInvalidTransition, current)
	}
	return nil
}
