package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/adapters/persistence/testdb"
	"microloan/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	borrower = domain.Principal{Email: "borrower@example.com", Role: domain.RoleUser}
	stranger = domain.Principal{Email: "stranger@example.com", Role: domain.RoleUser}
	manager  = domain.Principal{Email: "manager@example.com", Role: domain.RoleManager}
	admin    = domain.Principal{Email: "admin@example.com", Role: domain.RoleAdmin}
)

// fakeProvider is an in-memory checkout provider
type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*CheckoutSession
	created  []*SessionRequest
	err      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*CheckoutSession)}
}

func (p *fakeProvider) CreateSession(_ context.Context, req *SessionRequest) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.created = append(p.created, req)
	id := fmt.Sprintf("cs_test_%d", len(p.created))
	s := &CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example.com/" + id,
		PaymentStatus: "unpaid",
		AmountTotal:   req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
	}
	p.sessions[id] = s
	return s, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, id string) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	cp := *s
	return &cp, nil
}

// pay marks a session as completed by the payer
func (p *fakeProvider) pay(id, transactionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sessions[id]
	s.PaymentStatus = PaymentStatusPaid
	s.TransactionID = transactionID
}

// addPaid registers an already-paid session for an application
func (p *fakeProvider) addPaid(id, transactionID, applicationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id] = &CheckoutSession{
		ID:            id,
		TransactionID: transactionID,
		PaymentStatus: PaymentStatusPaid,
		AmountTotal:   decimal.RequireFromString("10.00"),
		Currency:      "usd",
		CustomerEmail: borrower.Email,
		Metadata:      map[string]string{MetadataApplicationID: applicationID},
	}
}

// recordingPublisher captures published notifications
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

type fixture struct {
	store     repositories.Store
	provider  *fakeProvider
	publisher *recordingPublisher
	apps      *ApplicationService
	payments  *PaymentService
	loans     *LoanService
	loanID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repositories.NewGormStore(testdb.Open(t))
	provider := newFakeProvider()
	publisher := &recordingPublisher{}
	notify := NewNotificationService(publisher, nil)

	f := &fixture{
		store:     store,
		provider:  provider,
		publisher: publisher,
		apps:      NewApplicationService(store, notify, nil),
		payments: NewPaymentService(store, provider, notify, PaymentConfig{
			FeeAmount:   decimal.RequireFromString("10.00"),
			Currency:    "usd",
			ProductName: "Application fee",
			SuccessURL:  "http://localhost:5173/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:   "http://localhost:5173/dashboard/my-loans",
		}, nil),
		loans: NewLoanService(store.Loans(), nil),
	}

	loan, err := f.loans.Create(context.Background(), manager, &LoanInput{
		Title:        "Starter",
		Category:     "personal",
		InterestRate: decimal.RequireFromString("5.5"),
		MaxLoanLimit: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	f.loanID = loan.ID
	return f
}

func (f *fixture) submit(t *testing.T, amount int64) *domain.Application {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), borrower, &SubmitInput{
		LoanProductRef: f.loanID,
		LoanAmount:     decimal.NewFromInt(amount),
		Purpose:        "tuition",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

func (f *fixture) approved(t *testing.T) *domain.Application {
	t.Helper()
	app := f.submit(t, 1000)
	app, err := f.apps.SetStatus(context.Background(), app.ID, domain.StatusApproved, manager, "127.0.0.1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return app
}

// paidSession opens a checkout for app and completes it at the provider
func (f *fixture) paidSession(t *testing.T, app *domain.Application) string {
	t.Helper()
	s, err := f.payments.CreateCheckoutSession(context.Background(), borrower, app.ID, "Bo Rower")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	f.provider.pay(s.ID, "pi_"+uuid.NewString()[:8])
	return s.ID
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// nonTransactionalStore runs WithinTransaction inline, like a document store
// without multi-document transactions, and fails the next paymentFailures inserts.
type nonTransactionalStore struct {
	repositories.Store
	payments *flakyPayments
}

func newNonTransactionalStore(inner repositories.Store, paymentFailures int) *nonTransactionalStore {
	return &nonTransactionalStore{
		Store:    inner,
		payments: &flakyPayments{PaymentRepository: inner.Payments(), failures: paymentFailures},
	}
}

func (s *nonTransactionalStore) Payments() repositories.PaymentRepository { return s.payments }

func (s *nonTransactionalStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	return fn(ctx, s)
}

type flakyPayments struct {
	repositories.PaymentRepository
	failures int
}

func (p *flakyPayments) Create(ctx context.Context, payment *domain.Payment) error {
	if p.failures > 0 {
		p.failures--
		return fmt.Errorf("insert failed")
	}
	return p.PaymentRepository.Create(ctx, payment)
}
