package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnloop/internal/model"
	"learnloop/pkg/database"
)

// CourseRepository course catalog access.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]model.Course, error)
	// Update applies set to the course and returns the updated document.
	Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (*model.Course, error)
	// SetCode overwrites the enrollment code. Returns ErrDuplicate when
	// another course already holds code.
	SetCode(ctx context.Context, id primitive.ObjectID, code string, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type courseRepo struct {
	coll *mongo.Collection
}

// NewCourseRepo creates a CourseRepository.
func NewCourseRepo(db *mongo.Database) CourseRepository {
	return &courseRepo{coll: db.Collection(database.CollCourses)}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	course.Touch(time.Now().UTC())

	res, err := r.coll.InsertOne(ctx, course)
	if err != nil {
		return translate(err)
	}
	course.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *courseRepo) findOne(ctx context.Context, filter bson.M) (*model.Course, error) {
	var course model.Course
	if err := r.coll.FindOne(ctx, filter).Decode(&course); err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

func (r *courseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Course, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	return r.findOne(ctx, bson.M{"courseCode": code})
}

func (r *courseRepo) ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]model.Course, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"teacherId": teacherID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	courses := []model.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (*model.Course, error) {
	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}

	var course model.Course
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&course)
	if err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

func (r *courseRepo) SetCode(ctx context.Context, id primitive.ObjectID, code string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"courseCode": code, "codeGeneratedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
