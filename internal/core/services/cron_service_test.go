package services

import (
	"context"
	"testing"
)

func TestAuditFeeDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.approved(t)
	if _, err := f.payments.ConfirmPayment(ctx, f.paidSession(t, paid)); err != nil {
		t.Fatalf("ConfirmPayment error = %v", err)
	}
	drifted := f.approved(t)
	if _, err := f.store.Applications().ClaimFeePayment(ctx, drifted.ID, "TRACK-PAY-20250101-abcdef"); err != nil {
		t.Fatalf("ClaimFeePayment error = %v", err)
	}

	svc := NewCronService(f.store.Applications(), "", nil)
	apps, err := svc.AuditFeeDrift(ctx)
	if err != nil {
		t.Fatalf("AuditFeeDrift error = %v", err)
	}
	if len(apps) != 1 || apps[0].ID != drifted.ID {
		t.Fatalf("drifted = %v, want only %s", apps, drifted.ID)
	}
}

func TestCronServiceRejectsBadSchedule(t *testing.T) {
	svc := NewCronService(nil, "every now and then", nil)
	if err := svc.Start(); err == nil {
		t.Fatal("Start accepted a malformed schedule")
	}
}
