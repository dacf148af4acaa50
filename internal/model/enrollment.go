package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment statuses. Nothing produces inactive yet.
const (
	EnrollmentActive   = "active"
	EnrollmentInactive = "inactive"
)

// Enrollment links a student to a course. At most one active enrollment
// exists per (course, student).
type Enrollment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	CourseID   primitive.ObjectID `bson:"courseId"`
	StudentID  primitive.ObjectID `bson:"studentId"`
	EnrollDate time.Time          `bson:"enrollDate"`
	Status     string             `bson:"status"`
}
