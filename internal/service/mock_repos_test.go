package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnloop/internal/model"
	"learnloop/internal/repository"
	"learnloop/pkg/storage"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu       sync.Mutex
	teachers map[primitive.ObjectID]*model.Teacher
	students map[primitive.ObjectID]*model.Student
	failWith error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		teachers: make(map[primitive.ObjectID]*model.Teacher),
		students: make(map[primitive.ObjectID]*model.Student),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := user.GetProfile()
	for _, existing := range m.profiles(user.GetRole()) {
		if existing.Username == p.Username {
			return repository.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.Role = user.GetRole()
	p.Touch(time.Now().UTC())

	switch u := user.(type) {
	case *model.Teacher:
		m.teachers[p.ID] = u
	case *model.Student:
		m.students[p.ID] = u
	}
	return nil
}

func (m *mockUserRepo) profiles(role string) []*model.Profile {
	var out []*model.Profile
	switch role {
	case model.RoleTeacher:
		for _, t := range m.teachers {
			out = append(out, &t.Profile)
		}
	case model.RoleStudent:
		for _, s := range m.students {
			out = append(out, &s.Profile)
		}
	}
	return out
}

func (m *mockUserRepo) get(role string, id primitive.ObjectID) (model.User, bool) {
	switch role {
	case model.RoleTeacher:
		t, ok := m.teachers[id]
		return t, ok
	case model.RoleStudent:
		s, ok := m.students[id]
		return s, ok
	}
	return nil, false
}

func (m *mockUserRepo) GetByID(_ context.Context, role string, id primitive.ObjectID) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if u, ok := m.get(role, id); ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, role, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles(role) {
		if p.Username == username {
			u, _ := m.get(role, p.ID)
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, role string, id primitive.ObjectID, set map[string]interface{}) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.get(role, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := u.GetProfile()
	for k, v := range set {
		s := v.(string)
		switch k {
		case "firstName":
			p.FirstName = s
		case "lastName":
			p.LastName = s
		case "email":
			p.Email = s
		case "institution":
			p.Institution = s
		}
	}
	return u, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, role string, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.get(role, id)
	if !ok {
		return repository.ErrNotFound
	}
	u.GetProfile().PasswordHash = hash
	return nil
}

func (m *mockUserRepo) ListStudents(_ context.Context, ids []primitive.ObjectID) ([]*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			cp := *s
			cp.PasswordHash = ""
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[primitive.ObjectID]*model.Course
	// taken are codes held by courses outside this mock
	taken map[string]bool
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses: make(map[primitive.ObjectID]*model.Course),
		taken:   make(map[string]bool),
	}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	course.Touch(time.Now().UTC())
	cp := *course
	m.courses[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.courses {
		if c.CourseCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockCourseRepo) ListByTeacher(_ context.Context, teacherID primitive.ObjectID) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Course
	for _, c := range m.courses {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCourseRepo) Update(_ context.Context, id primitive.ObjectID, set map[string]interface{}) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range set {
		s := v.(string)
		switch k {
		case "courseName":
			c.CourseName = s
		case "department":
			c.Department = s
		case "courseNumber":
			c.CourseNumber = s
		case "term":
			c.Term = s
		case "year":
			c.Year = s
		case "institution":
			c.Institution = s
		}
	}
	cp := *c
	return &cp, nil
}

func (m *mockCourseRepo) SetCode(_ context.Context, id primitive.ObjectID, code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.taken[code] {
		return repository.ErrDuplicate
	}
	for otherID, other := range m.courses {
		if otherID != id && other.CourseCode == code {
			return repository.ErrDuplicate
		}
	}
	c.CourseCode = code
	c.CodeGeneratedAt = &at
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments []model.Enrollment
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{}
}

func (m *mockEnrollmentRepo) Enroll(_ context.Context, courseID, studentID primitive.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID && e.Status == model.EnrollmentActive {
			return false, nil
		}
	}
	m.enrollments = append(m.enrollments, model.Enrollment{
		ID:         primitive.NewObjectID(),
		CourseID:   courseID,
		StudentID:  studentID,
		EnrollDate: at,
		Status:     model.EnrollmentActive,
	})
	return true, nil
}

func (m *mockEnrollmentRepo) IsEnrolled(_ context.Context, courseID, studentID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID && e.Status == model.EnrollmentActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID primitive.ObjectID) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == model.EnrollmentActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID primitive.ObjectID) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) Remove(_ context.Context, courseID, studentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID && e.Status == model.EnrollmentActive {
			m.enrollments = append(m.enrollments[:i], m.enrollments[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockEnrollmentRepo) DeleteByCourse(_ context.Context, courseID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.enrollments[:0]
	var n int64
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.enrollments = kept
	return n, nil
}

// ── Fake ObjectStore ──

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

type fakeObjectStore struct {
	mu         sync.Mutex
	objects    map[string]fakeObject
	deleted    []string
	presignErr error
	deleteErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string]fakeObject)}
}

func (f *fakeObjectStore) Put(_ context.Context, in storage.PutInput) error {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[in.Key] = fakeObject{
		body:        body,
		contentType: in.ContentType,
		metadata:    in.Metadata,
		modified:    time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	return nil
}

func (f *fakeObjectStore) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for k, o := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(o.body)), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeObjectStore) Head(_ context.Context, key string) (*storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(o.body)), LastModified: o.modified, Metadata: o.metadata}, nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://files.test/" + key + "?sig=x", nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) put(key, title string) {
	_ = f.Put(context.Background(), storage.PutInput{
		Key:      key,
		Body:     bytes.NewReader([]byte("%PDF-1.4")),
		Metadata: map[string]string{metaTitle: encodeMeta(title)},
	})
}

// ── Recording Publisher ──

type publishedEvent struct {
	subject string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{subject: subject, payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

// ── Fake TokenBlacklist ──

type fakeBlacklist struct {
	revoked map[string]time.Duration
	err     error
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.revoked[jti] = ttl
	return nil
}

// ── fixtures ──

var errBackend = errors.New("backend unavailable")

type fixture struct {
	users       *mockUserRepo
	courses     *mockCourseRepo
	enrollments *mockEnrollmentRepo
	store       *fakeObjectStore
	publisher   *recordingPublisher
	repo        *repository.Repository
}

func newFixture() *fixture {
	f := &fixture{
		users:       newMockUserRepo(),
		courses:     newMockCourseRepo(),
		enrollments: newMockEnrollmentRepo(),
		store:       newFakeObjectStore(),
		publisher:   &recordingPublisher{},
	}
	f.repo = &repository.Repository{
		User:       f.users,
		Course:     f.courses,
		Enrollment: f.enrollments,
	}
	return f
}

func (f *fixture) addTeacher(username, first, last string) *model.Teacher {
	t := model.NewUser(model.RoleTeacher).(*model.Teacher)
	t.Username = username
	t.FirstName = first
	t.LastName = last
	_ = f.users.Create(context.Background(), t)
	return t
}

func (f *fixture) addStudent(username, first, last string) *model.Student {
	s := model.NewUser(model.RoleStudent).(*model.Student)
	s.Username = username
	s.FirstName = first
	s.LastName = last
	s.Email = username + "@uni.test"
	_ = f.users.Create(context.Background(), s)
	return s
}

func (f *fixture) addCourse(teacherID primitive.ObjectID, name, code string) *model.Course {
	c := &model.Course{
		CourseName:   name,
		Department:   "CS",
		CourseNumber: "101",
		Term:         "Fall",
		Year:         "2024",
		Institution:  "State University",
		TeacherID:    teacherID,
		CourseCode:   code,
	}
	_ = f.courses.Create(context.Background(), c)
	return c
}

func teacherIdentity(t *model.Teacher) Identity {
	return Identity{UserID: t.ID.Hex(), Role: model.RoleTeacher}
}

func studentIdentity(s *model.Student) Identity {
	return Identity{UserID: s.ID.Hex(), Role: model.RoleStudent}
}
