package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"learnloop/internal/model"
	"learnloop/internal/repository"
)

// AccessService decides whether a caller may act on a course.
type AccessService interface {
	// RequireRole fails with ErrForbiddenRole unless the caller has one of roles.
	RequireRole(caller Identity, roles ...string) error
	// CourseForOwner loads the course and checks the caller is its teacher.
	CourseForOwner(ctx context.Context, caller Identity, courseID string) (*model.Course, error)
	// CourseForMember loads the course and checks the caller is its teacher
	// or an actively enrolled student.
	CourseForMember(ctx context.Context, caller Identity, courseID string) (*model.Course, error)
}

type accessService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAccessService creates an AccessService.
func NewAccessService(repo *repository.Repository, logger *zap.Logger) AccessService {
	return &accessService{repo: repo, logger: logger}
}

func (s *accessService) RequireRole(caller Identity, roles ...string) error {
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return ErrForbiddenRole
}

func (s *accessService) loadCourse(ctx context.Context, courseID string) (*model.Course, error) {
	id, err := parseID(courseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("load course failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *accessService) CourseForOwner(ctx context.Context, caller Identity, courseID string) (*model.Course, error) {
	if err := s.RequireRole(caller, model.RoleTeacher); err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	callerID, err := parseID(caller.UserID, ErrForbiddenOwnership)
	if err != nil {
		return nil, err
	}
	if !course.OwnedBy(callerID) {
		return nil, ErrForbiddenOwnership
	}
	return course, nil
}

func (s *accessService) CourseForMember(ctx context.Context, caller Identity, courseID string) (*model.Course, error) {
	if err := s.RequireRole(caller, model.RoleTeacher, model.RoleStudent); err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	callerID, err := parseID(caller.UserID, ErrForbiddenOwnership)
	if err != nil {
		return nil, err
	}

	if caller.Role == model.RoleTeacher {
		if !course.OwnedBy(callerID) {
			return nil, ErrForbiddenOwnership
		}
		return course, nil
	}

	enrolled, err := s.repo.Enrollment.IsEnrolled(ctx, course.ID, callerID)
	if err != nil {
		s.logger.Error("check enrollment failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if !enrolled {
		return nil, ErrForbiddenOwnership
	}
	return course, nil
}
