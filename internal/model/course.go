package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is a document in courseCatalog. Enrollment lives in its own
// collection; TeacherID never changes after creation.
type Course struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	CourseName      string             `bson:"courseName"`
	Department      string             `bson:"department"`
	CourseNumber    string             `bson:"courseNumber"`
	Term            string             `bson:"term"`
	Year            string             `bson:"year"`
	Institution     string             `bson:"institution"`
	TeacherID       primitive.ObjectID `bson:"teacherId"`
	CourseCode      string             `bson:"courseCode,omitempty"`
	CodeGeneratedAt *time.Time         `bson:"codeGeneratedAt,omitempty"`
	Timestamps      `bson:",inline"`
}

// OwnedBy reports whether the teacher with id owns the course.
func (c *Course) OwnedBy(id primitive.ObjectID) bool {
	return !id.IsZero() && c.TeacherID == id
}
