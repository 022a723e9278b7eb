package services

import (
	"context"
	"errors"
	"testing"

	"microloan/internal/core/domain"
)

func TestDashboardCountsAndFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dash := NewDashboardService(f.store)

	f.submit(t, 500)
	rejected := f.submit(t, 700)
	if _, err := f.apps.SetStatus(ctx, rejected.ID, domain.StatusRejected, manager, ""); err != nil {
		t.Fatalf("reject: %v", err)
	}
	for i := 0; i < 2; i++ {
		app := f.approved(t)
		if _, err := f.payments.ConfirmPayment(ctx, f.paidSession(t, app)); err != nil {
			t.Fatalf("ConfirmPayment error = %v", err)
		}
	}

	data, err := dash.GetDashboard(ctx, manager)
	if err != nil {
		t.Fatalf("GetDashboard error = %v", err)
	}
	if data.TotalApplications != 4 || data.Pending != 1 || data.Approved != 2 || data.Rejected != 1 {
		t.Fatalf("counts = %+v, want 4 total, 1 pending, 2 approved, 1 rejected", data)
	}
	if data.FeePaid != 2 {
		t.Fatalf("FeePaid = %d, want 2", data.FeePaid)
	}
	if len(data.FeesAllTime) != 1 {
		t.Fatalf("FeesAllTime = %+v, want one currency", data.FeesAllTime)
	}
	if got := data.FeesAllTime[0]; got.Currency != "usd" || got.Payments != 2 || got.Amount.StringFixed(2) != "20.00" {
		t.Fatalf("FeesAllTime[0] = %+v, want usd 2 payments 20.00", got)
	}
	if len(data.RecentPayments) != 2 {
		t.Fatalf("RecentPayments = %d, want 2", len(data.RecentPayments))
	}
}

func TestDashboardRequiresStaff(t *testing.T) {
	f := newFixture(t)
	if _, err := NewDashboardService(f.store).GetDashboard(context.Background(), borrower); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("GetDashboard error = %v, want %v", err, domain.ErrForbidden)
	}
}
