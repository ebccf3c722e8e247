package mongo

import (
	"context"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryRepo struct {
	coll *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) repository.CategoryRepository {
	return &categoryRepo{coll: db.Collection(categoriesCollection)}
}

func (r *categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	return findAll[domain.Category](ctx, r.coll, "list categories", bson.D{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *categoryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Category, error) {
	var c domain.Category
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate("find category", err)
	}
	return &c, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, c)
	return translate("create category", err)
}

func (r *categoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return translate("update category", err)
	}
	if res.MatchedCount == 0 {
		return translate("update category", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate("delete category", err)
	}
	if res.DeletedCount == 0 {
		return translate("delete category", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	return n, translate("count categories", err)
}
