package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"learnloop/internal/dto"
	"learnloop/pkg/events"
)

func setupTestEnrollmentService() (EnrollmentService, *fixture) {
	f := newFixture()
	return NewEnrollmentService(f.repo, f.publisher, zap.NewNop()), f
}

// ── Enroll ──

func TestEnroll_Success(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	course := f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")

	resp, err := svc.Enroll(context.Background(), studentIdentity(s), &dto.EnrollRequest{
		CourseCode: "ABC234",
		StudentID:  s.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if resp.AlreadyEnrolled {
		t.Error("first enrollment should not be AlreadyEnrolled")
	}
	if resp.Course.ID != course.ID.Hex() {
		t.Errorf("expected course %s, got %s", course.ID.Hex(), resp.Course.ID)
	}
	if resp.Course.Teacher == nil || resp.Course.Teacher.LastName != "Ray" {
		t.Errorf("teacher summary missing: %+v", resp.Course.Teacher)
	}
	if ok, _ := f.enrollments.IsEnrolled(context.Background(), course.ID, s.ID); !ok {
		t.Error("enrollment not stored")
	}

	subjects := f.publisher.subjects()
	if len(subjects) != 1 || subjects[0] != events.SubjectEnrollmentCreated {
		t.Errorf("expected one enrollment.created event, got %v", subjects)
	}
}

func TestEnroll_NormalizesCode(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")

	_, err := svc.Enroll(context.Background(), studentIdentity(s), &dto.EnrollRequest{
		CourseCode: "  abc234 ",
		StudentID:  s.ID.Hex(),
	})
	if err != nil {
		t.Errorf("lower-case code with spaces should match, got %v", err)
	}
}

func TestEnroll_Idempotent(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	course := f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")
	req := &dto.EnrollRequest{CourseCode: "ABC234", StudentID: s.ID.Hex()}

	if _, err := svc.Enroll(context.Background(), studentIdentity(s), req); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}
	resp, err := svc.Enroll(context.Background(), studentIdentity(s), req)
	if err != nil {
		t.Fatalf("second Enroll failed: %v", err)
	}
	if !resp.AlreadyEnrolled {
		t.Error("second enrollment should report AlreadyEnrolled")
	}

	list, _ := f.enrollments.ListByCourse(context.Background(), course.ID)
	if len(list) != 1 {
		t.Errorf("expected 1 enrollment, got %d", len(list))
	}
	if n := len(f.publisher.subjects()); n != 1 {
		t.Errorf("expected a single event, got %d", n)
	}
}

func TestEnroll_Concurrent(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	course := f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")
	req := &dto.EnrollRequest{CourseCode: "ABC234", StudentID: s.ID.Hex()}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Enroll(context.Background(), studentIdentity(s), req)
		}()
	}
	wg.Wait()

	list, _ := f.enrollments.ListByCourse(context.Background(), course.ID)
	if len(list) != 1 {
		t.Errorf("expected 1 enrollment after concurrent calls, got %d", len(list))
	}
}

func TestEnroll_Errors(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")
	other := f.addStudent("ben", "Ben", "Ox")

	tests := []struct {
		name    string
		caller  Identity
		req     dto.EnrollRequest
		wantErr error
	}{
		{"teacher cannot enroll", teacherIdentity(teacher), dto.EnrollRequest{CourseCode: "ABC234", StudentID: teacher.ID.Hex()}, ErrForbiddenRole},
		{"malformed student id", studentIdentity(s), dto.EnrollRequest{CourseCode: "ABC234", StudentID: "xyz"}, ErrInvalidStudentID},
		{"enrolling someone else", studentIdentity(s), dto.EnrollRequest{CourseCode: "ABC234", StudentID: other.ID.Hex()}, ErrForbiddenSelf},
		{"unknown code", studentIdentity(s), dto.EnrollRequest{CourseCode: "ZZZ999", StudentID: s.ID.Hex()}, ErrInvalidCourseCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Enroll(context.Background(), tt.caller, &req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if n := len(f.publisher.subjects()); n != 0 {
		t.Errorf("failed enrollments must not publish, got %d events", n)
	}
}

func TestEnroll_PublishFailureIgnored(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	f.publisher.err = errBackend
	teacher := f.addTeacher("tina", "Tina", "Ray")
	f.addCourse(teacher.ID, "Algorithms", "ABC234")
	s := f.addStudent("amy", "Amy", "Ng")

	_, err := svc.Enroll(context.Background(), studentIdentity(s), &dto.EnrollRequest{CourseCode: "ABC234", StudentID: s.ID.Hex()})
	if err != nil {
		t.Errorf("publish failure should not fail the enrollment, got %v", err)
	}
}

// ── ListForStudent ──

func TestListForStudent(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	a := f.addCourse(teacher.ID, "Algorithms", "")
	b := f.addCourse(teacher.ID, "Compilers", "")
	f.addCourse(teacher.ID, "Networks", "")
	s := f.addStudent("amy", "Amy", "Ng")
	_, _ = f.enrollments.Enroll(context.Background(), a.ID, s.ID, time.Now())
	_, _ = f.enrollments.Enroll(context.Background(), b.ID, s.ID, time.Now())

	list := svc.ListForStudent(context.Background(), s.ID.Hex())
	if list.Err != nil {
		t.Fatalf("unexpected error: %v", list.Err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(list.Items))
	}
	for _, c := range list.Items {
		if c.Teacher == nil || c.Teacher.FirstName != "Tina" {
			t.Errorf("course %s missing teacher summary", c.ID)
		}
	}
}

func TestListForStudent_SkipsDanglingEnrollments(t *testing.T) {
	svc, f := setupTestEnrollmentService()
	teacher := f.addTeacher("tina", "Tina", "Ray")
	good := f.addCourse(teacher.ID, "Algorithms", "")
	orphan := f.addCourse(primitive.NewObjectID(), "No Teacher", "")
	s := f.addStudent("amy", "Amy", "Ng")
	_, _ = f.enrollments.Enroll(context.Background(), good.ID, s.ID, time.Now())
	_, _ = f.enrollments.Enroll(context.Background(), orphan.ID, s.ID, time.Now())
	_, _ = f.enrollments.Enroll(context.Background(), primitive.NewObjectID(), s.ID, time.Now())

	list := svc.ListForStudent(context.Background(), s.ID.Hex())
	if len(list.Items) != 1 || list.Items[0].ID != good.ID.Hex() {
		t.Errorf("expected only the resolvable course, got %+v", list.Items)
	}
	if list.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", list.Skipped)
	}
}

func TestListForStudent_MalformedIDIsEmpty(t *testing.T) {
	svc, _ := setupTestEnrollmentService()

	list := svc.ListForStudent(context.Background(), "nope")
	if list.Items == nil || len(list.Items) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list.Items)
	}
}
