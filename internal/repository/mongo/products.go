package mongo

import (
	"context"
	"regexp"
	"time"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepo{coll: db.Collection(productsCollection), now: time.Now}
}

var notArchived = bson.E{Key: "archived", Value: bson.M{"$ne": true}}

// productQuery turns a catalog filter into a find filter and options. All
// criteria are conjunctive; the search term matches name, category or
// collection case-insensitively.
func productQuery(f domain.ProductFilter) (bson.D, *options.FindOptions) {
	filter := bson.D{notArchived}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Collection != "" {
		filter = append(filter, bson.E{Key: "collection", Value: f.Collection})
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.M{"name": re},
			bson.M{"category": re},
			bson.M{"collection": re},
		}})
	}

	opts := options.Find()
	switch f.Sort {
	case domain.SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case domain.SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	case domain.SortNewest:
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
		opts.SetSkip(int64(f.Skip()))
	}
	return filter, opts
}

func (r *productRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	filter, opts := productQuery(f)
	return findAll[domain.Product](ctx, r.coll, "list products", filter, opts)
}

func (r *productRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var p domain.Product
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}, notArchived}).Decode(&p)
	if err != nil {
		return nil, translate("find product", err)
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	found, err := findAll[domain.Product](ctx, r.coll, "find products",
		bson.D{{Key: "_id", Value: bson.M{"$in": ids}}, notArchived})
	if err != nil {
		return nil, err
	}

	// $in does not keep the order of ids.
	byID := make(map[primitive.ObjectID]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	now := r.now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, p)
	return translate("create product", err)
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = r.now()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.ID}, notArchived}, p)
	if err != nil {
		return translate("update product", err)
	}
	if res.MatchedCount == 0 {
		return translate("update product", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete product", err)
	}
	if res.DeletedCount == 0 {
		return translate("delete product", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *productRepo) Archive(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"archived": true, "inStock": false, "updatedAt": r.now()}})
	if err != nil {
		return translate("archive product", err)
	}
	if res.MatchedCount == 0 {
		return translate("archive product", mongo.ErrNoDocuments)
	}
	return nil
}

// ReserveStock is a single conditional update, so two checkouts racing for
// the last unit cannot both win.
func (r *productRepo) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "trackInventory", Value: true},
		{Key: "stock", Value: bson.M{"$gte": qty}},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"stock": bson.M{"$subtract": bson.A{"$stock", qty}}}}},
		{{Key: "$set", Value: bson.M{"inStock": bson.M{"$gt": bson.A{"$stock", 0}}, "updatedAt": r.now()}}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate("reserve stock", err)
	}
	if res.MatchedCount == 0 {
		return domain.Errorf(domain.ErrConflict, "insufficient stock for product %s", id.Hex())
	}
	return nil
}

func (r *productRepo) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "trackInventory": true}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"inStock": true, "updatedAt": r.now()},
	})
	return translate("release stock", err)
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{notArchived})
	return n, translate("count products", err)
}
