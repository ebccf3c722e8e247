package mongo

import (
	"context"
	"errors"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type wishlistRepo struct {
	coll *mongo.Collection
}

func NewWishlistRepository(db *mongo.Database) repository.WishlistRepository {
	return &wishlistRepo{coll: db.Collection(wishlistsCollection)}
}

func (r *wishlistRepo) Get(ctx context.Context, user primitive.ObjectID) (*domain.Wishlist, error) {
	w := domain.Wishlist{User: user, Products: []primitive.ObjectID{}}
	err := r.coll.FindOne(ctx, bson.M{"user": user}).Decode(&w)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, translate("get wishlist", err)
	}
	if w.Products == nil {
		w.Products = []primitive.ObjectID{}
	}
	return &w, nil
}

// Add upserts the wishlist on first use; $addToSet keeps it a set. Two
// first adds for the same user race on the unique user index, and the loser
// retries once as a plain update of the winner's document.
func (r *wishlistRepo) Add(ctx context.Context, user, product primitive.ObjectID) error {
	filter := bson.M{"user": user}
	update := bson.M{"$addToSet": bson.M{"products": product}}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	return translate("add to wishlist", err)
}

func (r *wishlistRepo) Remove(ctx context.Context, user, product primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"user": user},
		bson.M{"$pull": bson.M{"products": product}},
	)
	return translate("remove from wishlist", err)
}
