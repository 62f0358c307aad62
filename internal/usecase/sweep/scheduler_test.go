package sweep

import (
	"context"
	"testing"
	"time"

	"vendorguard/internal/domain/compliance"
)

func TestSchedulerRunsSweeps(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendorID := f.createVendor(t, compliance.StatusApproved)
	f.addDocument(t, vendorID, "BUSINESS_LICENSE", time.Now().UTC().AddDate(0, 0, -30))

	s := NewScheduler(f.svc, SchedulerConfig{
		ExpiryInterval:       50 * time.Millisecond,
		ExpiryInitialDelay:   time.Millisecond,
		HighRiskInterval:     50 * time.Millisecond,
		HighRiskInitialDelay: time.Millisecond,
	})
	s.Start(ctx)
	defer s.Stop(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		open, err := f.flags.FindUnresolvedByVendor(ctx, vendorID)
		if err != nil {
			t.Fatalf("query flags: %v", err)
		}
		if len(open) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler never ran the expiry sweep")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	s := NewScheduler(f.svc, DefaultSchedulerConfig())
	s.Start(ctx)
	s.Start(ctx)
	s.Stop(ctx)
	s.Stop(ctx)
}
