package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
)

// NATSPublisher pushes compliance events onto a NATS subject tree so
// downstream consumers (dashboards, ticketing) can react without polling
// the database. Best-effort: the audit log is the durable record.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

func NewNATSPublisher(url string, subjectPrefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("vendorguard"))
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %q", url)
	}
	if subjectPrefix == "" {
		subjectPrefix = "compliance"
	}
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event ports.ComplianceEvent) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal compliance event")
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, event.Kind)
	if err := p.conn.Publish(subject, payload); err != nil {
		return errs.Wrapf(err, "publish %s", subject)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
