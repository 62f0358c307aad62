package ports

import "context"

// ComplianceEvent is published after a mutation commits so downstream
// consumers (dashboards, ticketing) can react. Publishing is best-effort;
// the audit log, not the event stream, is the durable record.
type ComplianceEvent struct {
	Kind     string `json:"kind"`
	VendorID uint64 `json:"vendor_id"`
	FlagID   uint64 `json:"flag_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Score    int    `json:"score,omitempty"`
	Actor    string `json:"actor"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event ComplianceEvent) error
}
