package mongo

import (
	"context"
	"time"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepo{coll: db.Collection(ordersCollection), now: time.Now}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// Create inserts the whole order, line items included, in one document write.
func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	now := r.now()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, o)
	return translate("create order", err)
}

func (r *orderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate("find order", err)
	}
	return &o, nil
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, user primitive.ObjectID, key string) (*domain.Order, error) {
	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"user": user, "idempotencyKey": key}).Decode(&o); err != nil {
		return nil, translate("find order by idempotency key", err)
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context) ([]domain.Order, error) {
	return findAll[domain.Order](ctx, r.coll, "list orders", bson.D{},
		options.Find().SetSort(newestFirst))
}

func (r *orderRepo) ListByUser(ctx context.Context, user primitive.ObjectID) ([]domain.Order, error) {
	return findAll[domain.Order](ctx, r.coll, "list user orders", bson.M{"user": user},
		options.Find().SetSort(newestFirst))
}

// Update writes only the admin-editable fields so line items stay frozen.
func (r *orderRepo) Update(ctx context.Context, o *domain.Order) error {
	set := bson.M{
		"paymentStatus":    o.PaymentStatus,
		"shippingStatus":   o.ShippingStatus,
		"trackingNumber":   o.TrackingNumber,
		"paymentReference": o.PaymentReference,
		"updatedAt":        o.UpdatedAt,
	}
	if o.DeliveredAt != nil {
		set["deliveredAt"] = o.DeliveredAt
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": set})
	if err != nil {
		return translate("update order", err)
	}
	if res.MatchedCount == 0 {
		return translate("update order", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete order", err)
	}
	if res.DeletedCount == 0 {
		return translate("delete order", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *orderRepo) ReferencesProduct(ctx context.Context, product primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"items.product": product}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate("check product references", err)
	}
	return n > 0, nil
}
