// Package mongostore implements repositories.Store on MongoDB. Unique indexes
// carry the same guarantees the SQL schema does.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ repositories.Store = (*Store)(nil)

// Store implements repositories.Store
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// Connect dials uri, ensures indexes and returns a store on database name.
// Multi-document transactions need a replica set; with transactions=false
// WithinTransaction runs its steps sequentially.
func Connect(ctx context.Context, uri, name string, transactions bool) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, db: client.Database(name), transactions: transactions}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the indexes every repository relies on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colLoans: {
			{Keys: bson.D{{Key: "maxLoanLimit", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		colApplications: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "appliedAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "appliedAt", Value: -1}}},
			{
				Keys: bson.D{{Key: "trackingId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"trackingId": bson.M{"$type": "string"}}),
			},
		},
		colPayments: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "applicationId", Value: 1}}},
			{Keys: bson.D{{Key: "customerEmail", Value: 1}, {Key: "paidAt", Value: -1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Users() repositories.UserRepository { return &userRepository{col: s.db.Collection(colUsers)} }
func (s *Store) Loans() repositories.LoanRepository { return &loanRepository{col: s.db.Collection(colLoans)} }
func (s *Store) Applications() repositories.ApplicationRepository {
	return &applicationRepository{col: s.db.Collection(colApplications)}
}
func (s *Store) Payments() repositories.PaymentRepository {
	return &paymentRepository{col: s.db.Collection(colPayments)}
}
func (s *Store) Events() repositories.EventRepository {
	return &eventRepository{col: s.db.Collection(colEvents)}
}

// WithinTransaction runs fn in a session transaction when enabled
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}
	return s.client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc, s)
		})
		return err
	})
}

// Ping checks if the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%v: %w", err, domain.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%v: %w", err, domain.ErrDuplicate)
	}
	return err
}

func pageOptions(page domain.Page, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort).SetSkip(int64(page.Offset))
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	return opts
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
