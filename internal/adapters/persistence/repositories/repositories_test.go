package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"microloan/internal/adapters/persistence/testdb"
	"microloan/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newApplication(email string) *domain.Application {
	return &domain.Application{
		ID:             uuid.NewString(),
		BorrowerEmail:  email,
		LoanProductRef: uuid.NewString(),
		LoanAmount:     decimal.NewFromInt(500),
		Status:         domain.StatusPending,
		AppliedAt:      time.Now().UTC(),
		FeeStatus:      domain.FeeUnpaid,
	}
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(testdb.Open(t))

	if err := store.Users().Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleUser}); err != nil {
		t.Fatalf("Create error = %v", err)
	}
	err := store.Users().Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("second Create error = %v, want %v", err, domain.ErrDuplicate)
	}

	if err := store.Users().UpdateRole(ctx, "a@example.com", domain.RoleManager); err != nil {
		t.Fatalf("UpdateRole error = %v", err)
	}
	u, err := store.Users().GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error = %v", err)
	}
	if u.Role != domain.RoleManager {
		t.Fatalf("role = %q, want manager", u.Role)
	}

	if err := store.Users().UpdateRole(ctx, "ghost@example.com", domain.RoleAdmin); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateRole(ghost) error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestLoanRepositoryOrdersByLimit(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(testdb.Open(t))

	for _, limit := range []int64{5000, 1000, 3000} {
		err := store.Loans().Create(ctx, &domain.LoanProduct{
			ID:           uuid.NewString(),
			Title:        "loan",
			MaxLoanLimit: decimal.NewFromInt(limit),
			InterestRate: decimal.RequireFromString("4.5"),
			CreatedBy:    "m@example.com",
		})
		if err != nil {
			t.Fatalf("Create error = %v", err)
		}
	}

	loans, total, err := store.Loans().List(ctx, domain.Page{Limit: 10})
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if total != 3 || len(loans) != 3 {
		t.Fatalf("List = %d items (total %d), want 3", len(loans), total)
	}
	for i, want := range []int64{1000, 3000, 5000} {
		if !loans[i].MaxLoanLimit.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("loans[%d].MaxLoanLimit = %s, want %d", i, loans[i].MaxLoanLimit, want)
		}
	}

	if err := store.Loans().Delete(ctx, loans[0].ID); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if _, err := store.Loans().GetByID(ctx, loans[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID after delete error = %v, want %v", err, domain.ErrNotFound)
	}
	if err := store.Loans().Delete(ctx, loans[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestApplicationRepositoryUpdateStatusKeepsFirstApproval(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStore(testdb.Open(t)).Applications()

	app := newApplication("b@example.com")
	if err := repo.Create(ctx, app); err != nil {
		t.Fatalf("Create error = %v", err)
	}

	first := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.UpdateStatus(ctx, app.ID, domain.StatusApproved, &first); err != nil {
		t.Fatalf("UpdateStatus error = %v", err)
	}
	later := first.Add(48 * time.Hour)
	if err := repo.UpdateStatus(ctx, app.ID, domain.StatusApproved, &later); err != nil {
		t.Fatalf("UpdateStatus error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, app.ID, domain.StatusRejected, nil); err != nil {
		t.Fatalf("UpdateStatus error = %v", err)
	}

	got, err := repo.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("status = %q, want rejected", got.Status)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(first) {
		t.Fatalf("approvedAt = %v, want %v", got.ApprovedAt, first)
	}
}

func TestApplicationRepositoryClaimFeePayment(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStore(testdb.Open(t)).Applications()

	app := newApplication("b@example.com")
	if err := repo.Create(ctx, app); err != nil {
		t.Fatalf("Create error = %v", err)
	}

	got, err := repo.ClaimFeePayment(ctx, app.ID, "TRACK-PAY-20250101-aaaaaa")
	if err != nil || got != "TRACK-PAY-20250101-aaaaaa" {
		t.Fatalf("first claim = %q, %v", got, err)
	}
	got, err = repo.ClaimFeePayment(ctx, app.ID, "TRACK-PAY-20250101-bbbbbb")
	if err != nil || got != "TRACK-PAY-20250101-aaaaaa" {
		t.Fatalf("second claim = %q, %v, want the first tracking id", got, err)
	}

	stored, err := repo.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if stored.FeeStatus != domain.FeePaid || stored.TrackingID == nil || *stored.TrackingID != "TRACK-PAY-20250101-aaaaaa" {
		t.Fatalf("stored = %+v", stored)
	}

	exists, err := repo.ExistsByTrackingID(ctx, "TRACK-PAY-20250101-aaaaaa")
	if err != nil || !exists {
		t.Fatalf("ExistsByTrackingID = %v, %v", exists, err)
	}

	if _, err := repo.ClaimFeePayment(ctx, uuid.NewString(), "TRACK-PAY-20250101-cccccc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("claim on missing application error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestApplicationRepositoryDeletePending(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStore(testdb.Open(t)).Applications()

	pending := newApplication("b@example.com")
	approved := newApplication("b@example.com")
	approved.Status = domain.StatusApproved
	onceApproved := newApplication("b@example.com")
	approvedAt := time.Now().UTC()
	onceApproved.ApprovedAt = &approvedAt
	for _, a := range []*domain.Application{pending, approved, onceApproved} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create error = %v", err)
		}
	}

	if ok, err := repo.DeletePending(ctx, approved.ID); err != nil || ok {
		t.Fatalf("DeletePending(approved) = %v, %v, want false", ok, err)
	}
	if ok, err := repo.DeletePending(ctx, onceApproved.ID); err != nil || ok {
		t.Fatalf("DeletePending(once approved) = %v, %v, want false", ok, err)
	}
	if ok, err := repo.DeletePending(ctx, pending.ID); err != nil || !ok {
		t.Fatalf("DeletePending(pending) = %v, %v, want true", ok, err)
	}

	apps, total, err := repo.List(ctx, ApplicationFilter{BorrowerEmail: "b@example.com"}, domain.Page{Limit: 10})
	if err != nil || total != 2 || len(apps) != 2 {
		t.Fatalf("List = %v (total %d), %v", apps, total, err)
	}
}

func TestPaymentRepositoryTransactionIDIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(testdb.Open(t))

	app := newApplication("b@example.com")
	if err := store.Applications().Create(ctx, app); err != nil {
		t.Fatalf("Create application error = %v", err)
	}

	payment := func() *domain.Payment {
		return &domain.Payment{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Amount:        decimal.RequireFromString("10.00"),
			Currency:      "usd",
			CustomerEmail: "b@example.com",
			TransactionID: "pi_123",
			PaymentStatus: "paid",
			PaidAt:        time.Now().UTC(),
			TrackingID:    "TRACK-PAY-20250101-abcdef",
		}
	}

	if err := store.Payments().Create(ctx, payment()); err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if err := store.Payments().Create(ctx, payment()); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate Create error = %v, want %v", err, domain.ErrDuplicate)
	}

	got, err := store.Payments().GetByTransactionID(ctx, "pi_123")
	if err != nil {
		t.Fatalf("GetByTransactionID error = %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("amount = %s, want 10", got.Amount)
	}
	if _, err := store.Payments().GetByApplicationID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByApplicationID(missing) error = %v, want %v", err, domain.ErrNotFound)
	}

	payments, total, err := store.Payments().List(ctx, "other@example.com", domain.Page{Limit: 10})
	if err != nil || total != 0 || len(payments) != 0 {
		t.Fatalf("List(other) = %v (total %d), %v", payments, total, err)
	}
}

func TestListPaidWithoutPayment(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(testdb.Open(t))

	orphan := newApplication("b@example.com")
	settled := newApplication("c@example.com")
	for _, a := range []*domain.Application{orphan, settled} {
		if err := store.Applications().Create(ctx, a); err != nil {
			t.Fatalf("Create error = %v", err)
		}
	}
	if _, err := store.Applications().ClaimFeePayment(ctx, orphan.ID, "TRACK-PAY-20250101-000001"); err != nil {
		t.Fatalf("claim error = %v", err)
	}
	if _, err := store.Applications().ClaimFeePayment(ctx, settled.ID, "TRACK-PAY-20250101-000002"); err != nil {
		t.Fatalf("claim error = %v", err)
	}
	err := store.Payments().Create(ctx, &domain.Payment{
		ID:            uuid.NewString(),
		ApplicationID: settled.ID,
		Amount:        decimal.NewFromInt(10),
		Currency:      "usd",
		CustomerEmail: "c@example.com",
		TransactionID: "pi_settled",
		PaymentStatus: "paid",
		PaidAt:        time.Now().UTC(),
		TrackingID:    "TRACK-PAY-20250101-000002",
	})
	if err != nil {
		t.Fatalf("Create payment error = %v", err)
	}

	apps, err := store.Applications().ListPaidWithoutPayment(ctx, 10)
	if err != nil {
		t.Fatalf("ListPaidWithoutPayment error = %v", err)
	}
	if len(apps) != 1 || apps[0].ID != orphan.ID {
		t.Fatalf("ListPaidWithoutPayment = %v, want only %s", apps, orphan.ID)
	}
}

func TestWithinTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(testdb.Open(t))

	app := newApplication("b@example.com")
	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want %v", err, boom)
	}
	if _, err := store.Applications().GetByID(ctx, app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID after rollback error = %v, want %v", err, domain.ErrNotFound)
	}
}
