package compliance

// FlagReason is a structured tag on audit flags. Sweep idempotence checks
// key on the reason of unresolved flags instead of matching description
// text, and the store enforces at most one unresolved flag per
// (vendor, reason) for the sweep reasons.
type FlagReason string

const (
	ReasonExpiredDocuments FlagReason = "EXPIRED_DOCUMENTS"
	ReasonHighRisk         FlagReason = "HIGH_RISK"
	ReasonManual           FlagReason = "MANUAL"
)
