package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"learnloop/internal/dto"
	"learnloop/internal/model"
	"learnloop/internal/repository"
	"learnloop/pkg/events"
)

// EnrollmentService joins students to courses by code.
type EnrollmentService interface {
	// Enroll is idempotent: enrolling twice leaves one active enrollment and
	// reports AlreadyEnrolled on the second call.
	Enroll(ctx context.Context, caller Identity, req *dto.EnrollRequest) (*dto.EnrollResponse, error)
	// ListForStudent never fails. Enrollments whose course or teacher cannot
	// be resolved are skipped and logged.
	ListForStudent(ctx context.Context, studentID string) SoftList[dto.CourseResponse]
}

type enrollmentService struct {
	repo      *repository.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewEnrollmentService creates an EnrollmentService.
func NewEnrollmentService(repo *repository.Repository, publisher events.Publisher, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, publisher: publisher, logger: logger}
}

// normalizeCode trims and upper-cases a code typed by a student.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, caller Identity, req *dto.EnrollRequest) (*dto.EnrollResponse, error) {
	if caller.Role != model.RoleStudent {
		return nil, ErrForbiddenRole
	}

	studentID, err := parseID(req.StudentID, ErrInvalidStudentID)
	if err != nil {
		return nil, err
	}
	if studentID.Hex() != caller.UserID {
		return nil, ErrForbiddenSelf
	}

	code := normalizeCode(req.CourseCode)
	if code == "" {
		return nil, ErrMissingField("courseCode")
	}

	course, err := s.repo.Course.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCourseCode
		}
		s.logger.Error("lookup course code failed", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Enrollment.Enroll(ctx, course.ID, studentID, time.Now().UTC())
	if err != nil {
		s.logger.Error("enroll failed",
			zap.String("course_id", course.ID.Hex()),
			zap.String("student_id", req.StudentID),
			zap.Error(err),
		)
		return nil, err
	}

	msg := "Already enrolled in course"
	if created {
		msg = "Successfully enrolled in course"
		s.logger.Info("student enrolled", zap.String("course_id", course.ID.Hex()), zap.String("student_id", req.StudentID))
		publish(ctx, s.publisher, s.logger, events.SubjectEnrollmentCreated, map[string]string{
			"courseId":  course.ID.Hex(),
			"studentId": req.StudentID,
		})
	}

	teacher, err := teacherSummary(ctx, s.repo, course.TeacherID)
	if err != nil {
		s.logger.Warn("load course teacher failed", zap.String("course_id", course.ID.Hex()), zap.Error(err))
	}

	return &dto.EnrollResponse{
		Message:         msg,
		Course:          toCourseResponse(course, teacher),
		AlreadyEnrolled: !created,
	}, nil
}

// ────────────────────── ListForStudent ──────────────────────

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID string) SoftList[dto.CourseResponse] {
	id, err := parseID(studentID, ErrInvalidStudentID)
	if err != nil {
		return emptySoftList[dto.CourseResponse](err)
	}

	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, id)
	if err != nil {
		s.logger.Error("list student enrollments failed", zap.String("student_id", studentID), zap.Error(err))
		return emptySoftList[dto.CourseResponse](err)
	}

	out := SoftList[dto.CourseResponse]{Items: make([]dto.CourseResponse, 0, len(enrollments))}
	for _, e := range enrollments {
		course, err := s.repo.Course.GetByID(ctx, e.CourseID)
		if err != nil {
			out.Skipped++
			s.logger.Warn("skip enrollment: course unavailable",
				zap.String("student_id", studentID),
				zap.String("course_id", e.CourseID.Hex()),
				zap.Error(err),
			)
			continue
		}

		teacher, err := teacherSummary(ctx, s.repo, course.TeacherID)
		if err != nil {
			out.Skipped++
			s.logger.Warn("skip enrollment: teacher unavailable",
				zap.String("student_id", studentID),
				zap.String("course_id", e.CourseID.Hex()),
				zap.Error(err),
			)
			continue
		}

		out.Items = append(out.Items, toCourseResponse(course, teacher))
	}
	return out
}
