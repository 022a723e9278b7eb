package services

import (
	"context"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"

	"github.com/shopspring/decimal"
)

// DashboardService aggregates the staff overview
type DashboardService struct {
	store repositories.Store
	now   func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store repositories.Store) *DashboardService {
	return &DashboardService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ============================================================
// Staff Dashboard
// ============================================================

// FeeTotal is the collected fee amount in one currency
type FeeTotal struct {
	Currency string          `json:"currency"`
	Payments int64           `json:"payments"`
	Amount   decimal.Decimal `json:"amount"`
}

// DashboardData represents the staff dashboard
type DashboardData struct {
	// Application Statistics
	TotalApplications int64 `json:"totalApplications"`
	Pending           int64 `json:"pending"`
	Approved          int64 `json:"approved"`
	Rejected          int64 `json:"rejected"`
	FeePaid           int64 `json:"feePaid"`

	// Fee Statistics
	FeesAllTime   []FeeTotal `json:"feesAllTime"`
	FeesThisMonth []FeeTotal `json:"feesThisMonth"`

	// Recent Activity
	RecentPayments []*domain.Payment `json:"-"`
}

const dashboardRecentPayments = 5

// GetDashboard returns the staff overview
func (s *DashboardService) GetDashboard(ctx context.Context, caller domain.Principal) (*DashboardData, error) {
	if err := requireStaff(caller, "view dashboard"); err != nil {
		return nil, err
	}

	byStatus, err := s.store.Applications().CountByStatus(ctx)
	if err != nil {
		return nil, upstream("count applications", err)
	}
	data := &DashboardData{
		Pending:  byStatus[domain.StatusPending],
		Approved: byStatus[domain.StatusApproved],
		Rejected: byStatus[domain.StatusRejected],
	}
	for _, n := range byStatus {
		data.TotalApplications += n
	}

	if data.FeePaid, err = s.store.Applications().CountFeePaid(ctx); err != nil {
		return nil, upstream("count paid applications", err)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if data.FeesAllTime, err = s.feeTotals(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if data.FeesThisMonth, err = s.feeTotals(ctx, monthStart); err != nil {
		return nil, err
	}

	recent, _, err := s.store.Payments().List(ctx, "", domain.Page{Limit: dashboardRecentPayments})
	if err != nil {
		return nil, upstream("list recent payments", err)
	}
	data.RecentPayments = recent
	return data, nil
}

func (s *DashboardService) feeTotals(ctx context.Context, since time.Time) ([]FeeTotal, error) {
	totals, err := s.store.Payments().Totals(ctx, since)
	if err != nil {
		return nil, upstream(fmt.Sprintf("sum payments since %s", since.Format(time.DateOnly)), err)
	}
	out := make([]FeeTotal, len(totals))
	for i, t := range totals {
		out[i] = FeeTotal{Currency: t.Currency, Payments: t.Count, Amount: t.Amount}
	}
	return out, nil
}
