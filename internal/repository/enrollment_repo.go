package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnloop/internal/model"
	"learnloop/pkg/database"
)

// EnrollmentRepository course membership records.
type EnrollmentRepository interface {
	// Enroll makes sure an active enrollment exists and reports whether this
	// call created it.
	Enroll(ctx context.Context, courseID, studentID primitive.ObjectID, at time.Time) (bool, error)
	IsEnrolled(ctx context.Context, courseID, studentID primitive.ObjectID) (bool, error)
	ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]model.Enrollment, error)
	// Remove deletes the active enrollment. Returns ErrNotFound when there
	// was none.
	Remove(ctx context.Context, courseID, studentID primitive.ObjectID) error
	DeleteByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error)
}

type enrollmentRepo struct {
	coll *mongo.Collection
}

// NewEnrollmentRepo creates an EnrollmentRepository.
func NewEnrollmentRepo(db *mongo.Database) EnrollmentRepository {
	return &enrollmentRepo{coll: db.Collection(database.CollEnrollments)}
}

func activeFilter(courseID, studentID primitive.ObjectID) bson.M {
	return bson.M{"courseId": courseID, "studentId": studentID, "status": model.EnrollmentActive}
}

func (r *enrollmentRepo) Enroll(ctx context.Context, courseID, studentID primitive.ObjectID, at time.Time) (bool, error) {
	err := r.coll.FindOneAndUpdate(ctx,
		activeFilter(courseID, studentID),
		bson.M{"$setOnInsert": bson.M{"enrollDate": at}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Err()

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// nothing existed before the upsert
		return true, nil
	case mongo.IsDuplicateKeyError(err):
		// a concurrent upsert won the race on the partial unique index
		return false, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}

func (r *enrollmentRepo) IsEnrolled(ctx context.Context, courseID, studentID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, activeFilter(courseID, studentID), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *enrollmentRepo) list(ctx context.Context, filter bson.M) ([]model.Enrollment, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "enrollDate", Value: 1}}))
	if err != nil {
		return nil, err
	}

	enrollments := []model.Enrollment{}
	if err := cur.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]model.Enrollment, error) {
	return r.list(ctx, bson.M{"courseId": courseID, "status": model.EnrollmentActive})
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]model.Enrollment, error) {
	return r.list(ctx, bson.M{"studentId": studentID, "status": model.EnrollmentActive})
}

func (r *enrollmentRepo) Remove(ctx context.Context, courseID, studentID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, activeFilter(courseID, studentID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *enrollmentRepo) DeleteByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"courseId": courseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
