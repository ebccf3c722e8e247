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

type userRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepo{coll: db.Collection(usersCollection), now: time.Now}
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	now := r.now()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = domain.NormalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, u)
	return translate("create user", err)
}

func (r *userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&u); err != nil {
		return nil, translate("find user by email", err)
	}
	return &u, nil
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = r.now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate("update user", err)
	}
	if res.MatchedCount == 0 {
		return translate("update user", mongo.ErrNoDocuments)
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return findAll[domain.User](ctx, r.coll, "list users", filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	return n, translate("count users", err)
}

// CountSince counts customers, not admins, registered at or after since.
func (r *userRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"role":      domain.RoleCustomer,
		"createdAt": bson.M{"$gte": since},
	})
	return n, translate("count new users", err)
}
