package mongo

import (
	"context"
	"time"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type analyticsRepo struct {
	orders *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) repository.AnalyticsRepository {
	return &analyticsRepo{orders: db.Collection(ordersCollection)}
}

func totalSalesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}
}

// topProductsPipeline ranks products by units sold across every order line.
// Ties are broken by product id so the ranking is stable between calls.
func topProductsPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$items.product"},
			{Key: "name", Value: bson.D{{Key: "$first", Value: "$items.name"}}},
			{Key: "sales", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$multiply", Value: bson.A{"$items.quantity", "$items.price"}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "sales", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

func recentOrdersPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$owner"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "total", Value: 1},
			{Key: "paymentStatus", Value: 1},
			{Key: "shippingStatus", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "userName", Value: "$owner.name"},
			{Key: "userEmail", Value: "$owner.email"},
		}}},
	}
}

func ordersSincePipeline(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}
}

func (r *analyticsRepo) CountOrders(ctx context.Context) (int64, error) {
	n, err := r.orders.CountDocuments(ctx, bson.D{})
	return n, translate("count orders", err)
}

// TotalSales is zero, not an error, on an empty collection.
func (r *analyticsRepo) TotalSales(ctx context.Context) (int64, error) {
	rows, err := aggregate[struct {
		Total int64 `bson:"total"`
	}](ctx, r.orders, "total sales", totalSalesPipeline())
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Total, nil
}

func (r *analyticsRepo) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	return aggregate[domain.TopProduct](ctx, r.orders, "top products", topProductsPipeline(limit))
}

func (r *analyticsRepo) RecentOrders(ctx context.Context, limit int) ([]domain.RecentOrder, error) {
	return aggregate[domain.RecentOrder](ctx, r.orders, "recent orders", recentOrdersPipeline(limit))
}

func (r *analyticsRepo) OrdersSince(ctx context.Context, since time.Time) (domain.OrderWindow, error) {
	rows, err := aggregate[domain.OrderWindow](ctx, r.orders, "orders since", ordersSincePipeline(since))
	if err != nil || len(rows) == 0 {
		return domain.OrderWindow{}, err
	}
	return rows[0], nil
}
