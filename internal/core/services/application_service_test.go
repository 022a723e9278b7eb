package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"microloan/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSubmitValidatesAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		loanRef string
		amount  decimal.Decimal
		wantErr error
	}{
		{name: "zero amount", loanRef: f.loanID, amount: decimal.Zero, wantErr: domain.ErrInvalidRequest},
		{name: "negative amount", loanRef: f.loanID, amount: decimal.NewFromInt(-5), wantErr: domain.ErrInvalidRequest},
		{name: "over limit", loanRef: f.loanID, amount: decimal.NewFromInt(5001), wantErr: domain.ErrInvalidRequest},
		{name: "malformed loan id", loanRef: "nope", amount: decimal.NewFromInt(10), wantErr: domain.ErrInvalidRequest},
		{name: "unknown loan", loanRef: uuid.NewString(), amount: decimal.NewFromInt(10), wantErr: domain.ErrNotFound},
		{name: "at limit", loanRef: f.loanID, amount: decimal.NewFromInt(5000)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, err := f.apps.Submit(ctx, borrower, &SubmitInput{LoanProductRef: tc.loanRef, LoanAmount: tc.amount})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Submit error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit error = %v", err)
			}
			if app.Status != domain.StatusPending || app.FeeStatus != domain.FeeUnpaid {
				t.Fatalf("new application = %s/%s, want pending/unpaid", app.Status, app.FeeStatus)
			}
			if app.ApprovedAt != nil || app.TrackingID != nil {
				t.Fatalf("new application has approvedAt/trackingId set: %+v", app)
			}
		})
	}
}

func TestSubmitRecordsHistoryAndNotifies(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, 750)

	events, err := f.apps.History(context.Background(), borrower, app.ID)
	if err != nil {
		t.Fatalf("History error = %v", err)
	}
	if len(events) != 1 || events[0].Type != domain.EventCreate {
		t.Fatalf("History = %+v, want one CREATE event", events)
	}
	if got := f.publisher.count(); got != 1 {
		t.Fatalf("published = %d, want 1", got)
	}
}

func TestSetStatusKeepsFirstApprovalTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, 1000)

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.apps.now = fixedClock(first)
	app, err := f.apps.SetStatus(ctx, app.ID, domain.StatusApproved, manager, "")
	if err != nil {
		t.Fatalf("approve error = %v", err)
	}
	if app.ApprovedAt == nil || !app.ApprovedAt.Equal(first) {
		t.Fatalf("approvedAt = %v, want %v", app.ApprovedAt, first)
	}

	f.apps.now = fixedClock(first.Add(48 * time.Hour))
	if app, err = f.apps.SetStatus(ctx, app.ID, domain.StatusRejected, admin, ""); err != nil {
		t.Fatalf("reject error = %v", err)
	}
	if app.Status != domain.StatusRejected {
		t.Fatalf("status = %s, want rejected", app.Status)
	}
	if app, err = f.apps.SetStatus(ctx, app.ID, domain.StatusApproved, admin, ""); err != nil {
		t.Fatalf("re-approve error = %v", err)
	}
	if app.ApprovedAt == nil || !app.ApprovedAt.Equal(first) {
		t.Fatalf("approvedAt after re-approval = %v, want %v", app.ApprovedAt, first)
	}

	events, err := f.apps.History(ctx, manager, app.ID)
	if err != nil {
		t.Fatalf("History error = %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("History = %d events, want 4", len(events))
	}
}

func TestSetStatusRequiresStaff(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, 1000)

	tests := []struct {
		name    string
		actor   domain.Principal
		status  domain.ApplicationStatus
		wantErr error
	}{
		{name: "borrower approving", actor: borrower, status: domain.StatusApproved, wantErr: domain.ErrForbidden},
		{name: "unknown status", actor: manager, status: "archived", wantErr: domain.ErrInvalidRequest},
		{name: "manager rejecting", actor: manager, status: domain.StatusRejected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.apps.SetStatus(context.Background(), app.ID, tc.status, tc.actor, "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("SetStatus error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSetStatusDoesNotTouchFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.approved(t)

	if _, err := f.payments.ConfirmPayment(ctx, f.paidSession(t, app)); err != nil {
		t.Fatalf("ConfirmPayment error = %v", err)
	}
	app, err := f.apps.SetStatus(ctx, app.ID, domain.StatusRejected, manager, "")
	if err != nil {
		t.Fatalf("SetStatus error = %v", err)
	}
	if !app.IsFeePaid() || app.TrackingID == nil {
		t.Fatalf("fee cleared by status change: %+v", app)
	}
}

func TestGetAndListOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, 1000)

	if _, err := f.apps.Get(ctx, stranger, app.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Get(stranger) error = %v, want %v", err, domain.ErrForbidden)
	}
	if _, err := f.apps.Get(ctx, manager, app.ID); err != nil {
		t.Fatalf("Get(manager) error = %v", err)
	}
	if _, err := f.apps.Get(ctx, borrower, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v, want %v", err, domain.ErrNotFound)
	}

	if _, _, err := f.apps.ListByBorrower(ctx, stranger, borrower.Email, domain.Page{Limit: 10}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ListByBorrower(stranger) error = %v, want %v", err, domain.ErrForbidden)
	}
	apps, total, err := f.apps.ListByBorrower(ctx, borrower, "", domain.Page{Limit: 10})
	if err != nil || total != 1 || len(apps) != 1 {
		t.Fatalf("ListByBorrower(own) = %d (total %d), %v; want 1", len(apps), total, err)
	}

	if _, _, err := f.apps.ListPending(ctx, borrower, domain.Page{Limit: 10}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ListPending(borrower) error = %v, want %v", err, domain.ErrForbidden)
	}
	pending, _, err := f.apps.ListPending(ctx, manager, domain.Page{Limit: 10})
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPending = %d, %v; want 1", len(pending), err)
	}
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.submit(t, 100)
	if err := f.apps.Withdraw(ctx, pending.ID, stranger); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Withdraw(stranger) error = %v, want %v", err, domain.ErrForbidden)
	}
	if err := f.apps.Withdraw(ctx, pending.ID, borrower); err != nil {
		t.Fatalf("Withdraw(owner) error = %v", err)
	}
	if _, err := f.apps.Get(ctx, borrower, pending.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after withdraw error = %v, want %v", err, domain.ErrNotFound)
	}

	approved := f.approved(t)
	if err := f.apps.Withdraw(ctx, approved.ID, borrower); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Withdraw(approved) error = %v, want %v", err, domain.ErrForbidden)
	}
}

func TestWithdrawAfterApprovalRevertedKeepsCheckoutPayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.approved(t)
	sessionID := f.paidSession(t, app)

	if _, err := f.apps.SetStatus(ctx, app.ID, domain.StatusPending, manager, ""); err != nil {
		t.Fatalf("SetStatus(pending) error = %v", err)
	}
	if err := f.apps.Withdraw(ctx, app.ID, borrower); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Withdraw(once approved) error = %v, want %v", err, domain.ErrForbidden)
	}
	if err := f.apps.Withdraw(ctx, app.ID, manager); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Withdraw(once approved, staff) error = %v, want %v", err, domain.ErrForbidden)
	}

	res, err := f.payments.ConfirmPayment(ctx, sessionID)
	if err != nil {
		t.Fatalf("ConfirmPayment error = %v", err)
	}
	if !res.Success || res.TrackingID == "" {
		t.Fatalf("ConfirmPayment = %+v, want recorded payment", res)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	app := f.submit(t, 100)
	if app.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", app.Status)
	}
}

func TestSetStatusUnknownApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.NewString()

	if _, err := f.apps.SetStatus(ctx, missing, domain.StatusApproved, manager, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SetStatus(unknown) error = %v, want %v", err, domain.ErrNotFound)
	}
	if _, err := f.apps.SetStatus(ctx, missing, domain.StatusApproved, borrower, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("SetStatus(unknown, borrower) error = %v, want %v", err, domain.ErrForbidden)
	}
}
