package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnloop/internal/model"
	"learnloop/pkg/database"
)

// UserRepository reads and writes both user directories. The role selects
// the collection.
type UserRepository interface {
	Create(ctx context.Context, user model.User) error
	GetByID(ctx context.Context, role string, id primitive.ObjectID) (model.User, error)
	GetByUsername(ctx context.Context, role, username string) (model.User, error)
	UpdateProfile(ctx context.Context, role string, id primitive.ObjectID, set map[string]interface{}) (model.User, error)
	UpdatePassword(ctx context.Context, role string, id primitive.ObjectID, hash string) error
	ListStudents(ctx context.Context, ids []primitive.ObjectID) ([]*model.Student, error)
}

type userRepo struct {
	teachers *mongo.Collection
	students *mongo.Collection
}

// NewUserRepo creates a UserRepository.
func NewUserRepo(db *mongo.Database) UserRepository {
	return &userRepo{
		teachers: db.Collection(database.CollTeachers),
		students: db.Collection(database.CollStudents),
	}
}

func (r *userRepo) collection(role string) (*mongo.Collection, error) {
	switch role {
	case model.RoleTeacher:
		return r.teachers, nil
	case model.RoleStudent:
		return r.students, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

func (r *userRepo) decode(role string, res *mongo.SingleResult) (model.User, error) {
	user := model.NewUser(role)
	if err := res.Decode(user); err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user model.User) error {
	coll, err := r.collection(user.GetRole())
	if err != nil {
		return err
	}

	p := user.GetProfile()
	p.Role = user.GetRole()
	p.Touch(time.Now().UTC())

	res, err := coll.InsertOne(ctx, user)
	if err != nil {
		return translate(err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, role string, id primitive.ObjectID) (model.User, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}
	return r.decode(role, coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *userRepo) GetByUsername(ctx context.Context, role, username string) (model.User, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}
	return r.decode(role, coll.FindOne(ctx, bson.M{"username": username}))
}

func (r *userRepo) UpdateProfile(ctx context.Context, role string, id primitive.ObjectID, set map[string]interface{}) (model.User, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}

	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}

	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return r.decode(role, res)
}

func (r *userRepo) UpdatePassword(ctx context.Context, role string, id primitive.ObjectID, hash string) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ListStudents(ctx context.Context, ids []primitive.ObjectID) ([]*model.Student, error) {
	if len(ids) == 0 {
		return []*model.Student{}, nil
	}

	cur, err := r.students.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"password": 0}),
	)
	if err != nil {
		return nil, err
	}

	students := make([]*model.Student, 0, len(ids))
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}
