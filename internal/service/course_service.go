package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"learnloop/internal/dto"
	"learnloop/internal/model"
	"learnloop/internal/repository"
	"learnloop/pkg/events"
)

const (
	courseCodeLength   = 6
	courseCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	courseCodeAttempts = 5
)

// CourseService course catalog operations. Authorization happens before
// these are called.
type CourseService interface {
	Create(ctx context.Context, caller Identity, req *dto.CreateCourseRequest) (*dto.CreateCourseResponse, error)
	Get(ctx context.Context, courseID string) (*dto.CourseResponse, error)
	// GetWithTeacher adds the owning teacher's first and last name.
	GetWithTeacher(ctx context.Context, courseID string) (*dto.CourseResponse, error)
	// ListByTeacher never fails; see SoftList.
	ListByTeacher(ctx context.Context, teacherID string) SoftList[dto.CourseResponse]
	Update(ctx context.Context, courseID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	GenerateCode(ctx context.Context, courseID string) (string, error)
	// GetCode returns nil when no code has been generated.
	GetCode(ctx context.Context, courseID string) (*string, error)
	ListStudents(ctx context.Context, courseID string) ([]dto.StudentSummary, error)
	RemoveStudent(ctx context.Context, courseID, studentID string) error
	// Delete removes the course with its materials and enrollments.
	Delete(ctx context.Context, courseID string) error
}

type courseService struct {
	repo      *repository.Repository
	materials MaterialService
	publisher events.Publisher
	logger    *zap.Logger
	newCode   func() (string, error)
}

// NewCourseService creates a CourseService.
func NewCourseService(repo *repository.Repository, materials MaterialService, publisher events.Publisher, logger *zap.Logger) CourseService {
	return &courseService{
		repo:      repo,
		materials: materials,
		publisher: publisher,
		logger:    logger,
		newCode:   randomCourseCode,
	}
}

// randomCourseCode draws courseCodeLength characters from an alphabet
// without 0/O and 1/I.
func randomCourseCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(courseCodeAlphabet)))
	for i := 0; i < courseCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(courseCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func (s *courseService) load(ctx context.Context, courseID string) (*model.Course, error) {
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

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, caller Identity, req *dto.CreateCourseRequest) (*dto.CreateCourseResponse, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"courseName", &req.CourseName},
		{"department", &req.Department},
		{"courseNumber", &req.CourseNumber},
		{"term", &req.Term},
		{"year", &req.Year},
		{"teacherId", &req.TeacherID},
		{"institution", &req.Institution},
	}
	for _, f := range fields {
		*f.value = cleanText(*f.value)
		if *f.value == "" {
			return nil, ErrMissingField(f.name)
		}
	}

	teacherID, err := primitive.ObjectIDFromHex(req.TeacherID)
	if err != nil {
		return nil, ErrInvalidTeacherID
	}
	if req.TeacherID != caller.UserID {
		return nil, ErrForbiddenOwnership
	}

	course := &model.Course{
		CourseName:   req.CourseName,
		Department:   req.Department,
		CourseNumber: req.CourseNumber,
		Term:         req.Term,
		Year:         req.Year,
		Institution:  req.Institution,
		TeacherID:    teacherID,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("create course failed", zap.String("teacher_id", req.TeacherID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("course created", zap.String("course_id", course.ID.Hex()), zap.String("teacher_id", req.TeacherID))

	return &dto.CreateCourseResponse{
		Message:  "Course created successfully",
		CourseID: course.ID.Hex(),
	}, nil
}

// ────────────────────── Get ──────────────────────

func (s *courseService) Get(ctx context.Context, courseID string) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(course, nil)
	return &resp, nil
}

func (s *courseService) GetWithTeacher(ctx context.Context, courseID string) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}

	teacher, err := teacherSummary(ctx, s.repo, course.TeacherID)
	if err != nil {
		s.logger.Warn("load course teacher failed", zap.String("course_id", courseID), zap.Error(err))
	}

	resp := toCourseResponse(course, teacher)
	return &resp, nil
}

// ────────────────────── ListByTeacher ──────────────────────

func (s *courseService) ListByTeacher(ctx context.Context, teacherID string) SoftList[dto.CourseResponse] {
	id, err := parseID(teacherID, ErrInvalidTeacherID)
	if err != nil {
		return emptySoftList[dto.CourseResponse](err)
	}

	courses, err := s.repo.Course.ListByTeacher(ctx, id)
	if err != nil {
		s.logger.Error("list teacher courses failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return emptySoftList[dto.CourseResponse](err)
	}

	items := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		items = append(items, toCourseResponse(&courses[i], nil))
	}
	return SoftList[dto.CourseResponse]{Items: items}
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, courseID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	id, err := parseID(courseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, ErrEmptyCourseUpdate
	}

	set := map[string]interface{}{}
	for name, v := range map[string]*string{
		"courseName":   req.CourseName,
		"department":   req.Department,
		"courseNumber": req.CourseNumber,
		"term":         req.Term,
		"year":         req.Year,
		"institution":  req.Institution,
	} {
		if v == nil {
			continue
		}
		cleaned := cleanText(*v)
		if cleaned == "" {
			return nil, ErrMissingField(name)
		}
		set[name] = cleaned
	}

	course, err := s.repo.Course.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("update course failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	resp := toCourseResponse(course, nil)
	return &resp, nil
}

// ────────────────────── Course code ──────────────────────

func (s *courseService) GenerateCode(ctx context.Context, courseID string) (string, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < courseCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if code == course.CourseCode {
			continue
		}

		// the sparse unique index is the final arbiter
		err = s.repo.Course.SetCode(ctx, course.ID, code, time.Now().UTC())
		switch {
		case err == nil:
			s.logger.Info("course code generated", zap.String("course_id", courseID))
			return code, nil
		case errors.Is(err, repository.ErrDuplicate):
			s.logger.Debug("course code collision", zap.String("course_id", courseID), zap.Int("attempt", attempt+1))
			continue
		case errors.Is(err, repository.ErrNotFound):
			return "", ErrCourseNotFound
		default:
			s.logger.Error("store course code failed", zap.String("course_id", courseID), zap.Error(err))
			return "", err
		}
	}

	s.logger.Error("course code attempts exhausted", zap.String("course_id", courseID))
	return "", ErrCodeSpaceExhausted
}

func (s *courseService) GetCode(ctx context.Context, courseID string) (*string, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CourseCode == "" {
		return nil, nil
	}
	code := course.CourseCode
	return &code, nil
}

// ────────────────────── Roster ──────────────────────

func (s *courseService) ListStudents(ctx context.Context, courseID string) ([]dto.StudentSummary, error) {
	id, err := parseID(courseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, id)
	if err != nil {
		s.logger.Error("list enrollments failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if len(enrollments) == 0 {
		return []dto.StudentSummary{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	students, err := s.repo.User.ListStudents(ctx, ids)
	if err != nil {
		s.logger.Error("load students failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*model.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	// keep enrollment order; drop enrollments whose student no longer exists
	result := make([]dto.StudentSummary, 0, len(enrollments))
	for _, e := range enrollments {
		st, ok := byID[e.StudentID]
		if !ok {
			s.logger.Warn("enrollment references missing student",
				zap.String("course_id", courseID),
				zap.String("student_id", e.StudentID.Hex()),
			)
			continue
		}
		result = append(result, dto.StudentSummary{
			ID:         st.ID.Hex(),
			Username:   st.Username,
			FirstName:  st.FirstName,
			LastName:   st.LastName,
			Email:      st.Email,
			EnrollDate: dto.FormatTime(e.EnrollDate),
		})
	}
	return result, nil
}

func (s *courseService) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	cid, err := parseID(courseID, ErrInvalidCourseID)
	if err != nil {
		return err
	}
	sid, err := parseID(studentID, ErrInvalidStudentID)
	if err != nil {
		return err
	}

	if err := s.repo.Enrollment.Remove(ctx, cid, sid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotEnrolled
		}
		s.logger.Error("remove student failed", zap.String("course_id", courseID), zap.String("student_id", studentID), zap.Error(err))
		return err
	}

	s.logger.Info("student removed", zap.String("course_id", courseID), zap.String("student_id", studentID))
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, courseID string) error {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return err
	}

	// blobs first: a failure here leaves the course in place to retry
	removed, err := s.materials.DeleteAll(ctx, courseID)
	if err != nil {
		return err
	}

	dropped, err := s.repo.Enrollment.DeleteByCourse(ctx, course.ID)
	if err != nil {
		s.logger.Error("delete enrollments failed", zap.String("course_id", courseID), zap.Error(err))
		return err
	}

	if err := s.repo.Course.Delete(ctx, course.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("delete course failed", zap.String("course_id", courseID), zap.Error(err))
		return err
	}

	s.logger.Info("course deleted",
		zap.String("course_id", courseID),
		zap.Int("materials", removed),
		zap.Int64("enrollments", dropped),
	)
	publish(ctx, s.publisher, s.logger, events.SubjectCourseDeleted, map[string]string{
		"courseId":  courseID,
		"teacherId": course.TeacherID.Hex(),
	})
	return nil
}

// ── helpers ──

func teacherSummary(ctx context.Context, repo *repository.Repository, teacherID primitive.ObjectID) (*dto.TeacherSummary, error) {
	user, err := repo.User.GetByID(ctx, model.RoleTeacher, teacherID)
	if err != nil {
		return nil, err
	}
	p := user.GetProfile()
	return &dto.TeacherSummary{FirstName: p.FirstName, LastName: p.LastName}, nil
}

func toCourseResponse(c *model.Course, teacher *dto.TeacherSummary) dto.CourseResponse {
	resp := dto.CourseResponse{
		ID:           c.ID.Hex(),
		CourseName:   c.CourseName,
		Department:   c.Department,
		CourseNumber: c.CourseNumber,
		Term:         c.Term,
		Year:         c.Year,
		Institution:  c.Institution,
		TeacherID:    c.TeacherID.Hex(),
		Teacher:      teacher,
		CreatedAt:    dto.FormatTime(c.CreatedAt),
	}
	if c.CourseCode != "" {
		code := c.CourseCode
		resp.CourseCode = &code
	}
	return resp
}
