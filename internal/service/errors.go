package service

import (
	"errors"

	apperrors "learnloop/pkg/errors"
)

// ── auth ──

var (
	ErrDuplicateUser      = apperrors.New(apperrors.ErrDuplicate, "Username already exists")
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthenticated, "Invalid username or password")
	ErrInvalidRole        = apperrors.New(apperrors.ErrValidation, "Role must be teacher or student")
	ErrUserNotFound       = apperrors.New(apperrors.ErrNotFound, "User not found")
	ErrInvalidUserID      = apperrors.New(apperrors.ErrInvalidID, "Invalid user ID format")
	ErrPasswordTooLong    = apperrors.New(apperrors.ErrValidation, "Password too long")
)

// ── authorization ──

var (
	ErrForbiddenRole      = apperrors.New(apperrors.ErrForbidden, "Insufficient role for this operation")
	ErrForbiddenOwnership = apperrors.New(apperrors.ErrForbidden, "Not authorized to access this course")
	ErrForbiddenSelf      = apperrors.New(apperrors.ErrForbidden, "Not authorized to access this user")
	ErrForbiddenPath      = apperrors.New(apperrors.ErrForbidden, "File does not belong to this course")
)

// ── courses ──

var (
	ErrCourseNotFound     = apperrors.New(apperrors.ErrNotFound, "Course not found")
	ErrInvalidCourseID    = apperrors.New(apperrors.ErrInvalidID, "Invalid course ID format")
	ErrInvalidTeacherID   = apperrors.New(apperrors.ErrValidation, "Invalid teacherId")
	ErrEmptyCourseUpdate  = apperrors.New(apperrors.ErrValidation, "No fields to update")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique course code")
)

// ── enrollment ──

var (
	ErrInvalidCourseCode = apperrors.New(apperrors.ErrInvalidCode, "Invalid course code")
	ErrInvalidStudentID  = apperrors.New(apperrors.ErrInvalidID, "Invalid student ID format")
	ErrNotEnrolled       = apperrors.New(apperrors.ErrNotFound, "Student is not enrolled in this course")
)

// ── materials ──

var (
	ErrUnsupportedFileType = apperrors.New(apperrors.ErrUnsupportedType, "Only PDF files are allowed")
	ErrMissingTitle        = apperrors.New(apperrors.ErrValidation, "Missing title")
	ErrMissingFile         = apperrors.New(apperrors.ErrValidation, "No file provided")
	ErrMissingFileKey      = apperrors.New(apperrors.ErrValidation, "Missing file key")
)

// ErrMissingField reports the first required field that was empty.
func ErrMissingField(name string) error {
	return apperrors.New(apperrors.ErrValidation, "Missing "+name)
}
