package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ============================================================
// Users
// ============================================================

type userRepository struct {
	col *mongo.Collection
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	_, err := r.col.InsertOne(ctx, &userDoc{Email: user.Email, Role: string(user.Role), CreatedAt: user.CreatedAt})
	return translate(err)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var d userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toDomain(), nil
}

func (r *userRepository) UpdateRole(ctx context.Context, email string, role domain.Role) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": email}, bson.M{"$set": bson.M{"role": string(role)}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, bson.M{}, pageOptions(page, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.User, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

// ============================================================
// Loans
// ============================================================

type loanRepository struct {
	col *mongo.Collection
}

var liveLoan = bson.M{"deletedAt": bson.M{"$exists": false}}

func (r *loanRepository) Create(ctx context.Context, loan *domain.LoanProduct) error {
	loan.CreatedAt = now()
	loan.UpdatedAt = loan.CreatedAt
	_, err := r.col.InsertOne(ctx, newLoanDoc(loan))
	return translate(err)
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	var d loanDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "deletedAt": bson.M{"$exists": false}}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toDomain(), nil
}

func (r *loanRepository) List(ctx context.Context, page domain.Page) ([]*domain.LoanProduct, int64, error) {
	total, err := r.col.CountDocuments(ctx, liveLoan)
	if err != nil {
		return nil, 0, err
	}
	sort := bson.D{{Key: "maxLoanLimit", Value: 1}, {Key: "createdAt", Value: 1}}
	cur, err := r.col.Find(ctx, liveLoan, pageOptions(page, sort))
	if err != nil {
		return nil, 0, err
	}
	var docs []loanDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.LoanProduct, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.LoanProduct) error {
	d := newLoanDoc(loan)
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": loan.ID, "deletedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"title":        d.Title,
			"description":  d.Description,
			"category":     d.Category,
			"interestRate": d.InterestRate,
			"maxLoanLimit": d.MaxLoanLimit,
			"updatedAt":    now(),
		}},
	)
	return translate(err)
}

func (r *loanRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "deletedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"deletedAt": now()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ============================================================
// Applications
// ============================================================

type applicationRepository struct {
	col *mongo.Collection
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	_, err := r.col.InsertOne(ctx, newApplicationDoc(app))
	return translate(err)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var d applicationDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toDomain(), nil
}

func (r *applicationRepository) List(ctx context.Context, filter repositories.ApplicationFilter, page domain.Page) ([]*domain.Application, int64, error) {
	q := bson.M{}
	if filter.BorrowerEmail != "" {
		q["userEmail"] = filter.BorrowerEmail
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}

	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, q, pageOptions(page, bson.D{{Key: "appliedAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Application, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, approvedAt *time.Time) error {
	set := bson.M{"status": string(status)}
	if approvedAt != nil {
		set["approvedAt"] = bson.M{"$ifNull": bson.A{"$approvedAt", *approvedAt}}
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, mongo.Pipeline{{{Key: "$set", Value: set}}})
	return translate(err)
}

func (r *applicationRepository) ClaimFeePayment(ctx context.Context, id, trackingID string) (string, error) {
	var d applicationDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "trackingId": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"applicationFeeStatus": string(domain.FeePaid),
			"trackingId":           trackingID,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == nil {
		return trackingID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", translate(err)
	}

	app, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if app.TrackingID == nil {
		return "", fmt.Errorf("claim fee payment for %s: no document updated", id)
	}
	return *app.TrackingID, nil
}

func (r *applicationRepository) ExistsByTrackingID(ctx context.Context, trackingID string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"trackingId": trackingID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *applicationRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{
		"_id":                  id,
		"status":               string(domain.StatusPending),
		"applicationFeeStatus": string(domain.FeeUnpaid),
		"approvedAt":           nil,
	})
	if err != nil {
		return false, translate(err)
	}
	return res.DeletedCount > 0, nil
}

func (r *applicationRepository) ListPaidWithoutPayment(ctx context.Context, limit int) ([]*domain.Application, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"applicationFeeStatus": string(domain.FeePaid)}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         colPayments,
			"localField":   "_id",
			"foreignField": "applicationId",
			"as":           "payments",
		}}},
		{{Key: "$match", Value: bson.M{"payments": bson.M{"$size": 0}}}},
		{{Key: "$sort", Value: bson.M{"appliedAt": 1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"payments": 0}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Application, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (r *applicationRepository) CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[domain.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ApplicationStatus(row.Status)] = row.Count
	}
	return out, nil
}

func (r *applicationRepository) CountFeePaid(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"applicationFeeStatus": string(domain.FeePaid)})
}

// ============================================================
// Payments
// ============================================================

type paymentRepository struct {
	col *mongo.Collection
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.col.InsertOne(ctx, newPaymentDoc(payment))
	return translate(err)
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var d paymentDoc
	if err := r.col.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toDomain(), nil
}

func (r *paymentRepository) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Payment, error) {
	var d paymentDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "paidAt", Value: 1}})
	if err := r.col.FindOne(ctx, bson.M{"applicationId": applicationID}, opts).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toDomain(), nil
}

func (r *paymentRepository) List(ctx context.Context, customerEmail string, page domain.Page) ([]*domain.Payment, int64, error) {
	q := bson.M{}
	if customerEmail != "" {
		q["customerEmail"] = customerEmail
	}
	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, q, pageOptions(page, bson.D{{Key: "paidAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Payment, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

func (r *paymentRepository) Totals(ctx context.Context, since time.Time) ([]domain.PaymentTotal, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paidAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$currency",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Currency string               `bson:"_id"`
		Count    int64                `bson:"count"`
		Amount   primitive.Decimal128 `bson:"amount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.PaymentTotal, len(rows))
	for i, row := range rows {
		out[i] = domain.PaymentTotal{Currency: row.Currency, Count: row.Count, Amount: fromDecimal128(row.Amount)}
	}
	return out, nil
}

// ============================================================
// History
// ============================================================

type eventRepository struct {
	col *mongo.Collection
}

func (r *eventRepository) Create(ctx context.Context, event *domain.ApplicationEvent) error {
	_, err := r.col.InsertOne(ctx, newEventDoc(event))
	return translate(err)
}

func (r *eventRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.ApplicationEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"applicationId": applicationID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.ApplicationEvent, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}
