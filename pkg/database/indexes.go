package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// indexSpecs lists the indexes each collection needs. Creating an index that
// already exists with the same definition is a no-op, so this runs on every
// start.
func indexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollTeachers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		},
		CollStudents: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		},
		CollCourses: {
			{Keys: bson.D{{Key: "teacherId", Value: 1}}, Options: options.Index().SetName("by_teacher")},
			{Keys: bson.D{{Key: "courseCode", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_course_code")},
		},
		CollEnrollments: {
			{
				Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "studentId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "active"}).
					SetName("uniq_active_enrollment"),
			},
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("by_student")},
		},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	for coll, models := range indexSpecs() {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		logger.Info("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}
