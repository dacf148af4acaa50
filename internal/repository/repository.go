package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound no document matched.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate key")
)

// Repository groups every repository.
type Repository struct {
	User       UserRepository
	Course     CourseRepository
	Enrollment EnrollmentRepository
}

// NewRepository builds the Mongo-backed repositories.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Course:     NewCourseRepo(db),
		Enrollment: NewEnrollmentRepo(db),
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
