package dto

// ── course requests ──

// CreateCourseRequest fields are checked by the service so the error can
// name the first missing field.
type CreateCourseRequest struct {
	CourseName   string `json:"courseName"`
	Department   string `json:"department"`
	CourseNumber string `json:"courseNumber"`
	Term         string `json:"term"`
	Year         string `json:"year"`
	TeacherID    string `json:"teacherId"`
	Institution  string `json:"institution"`
}

// UpdateCourseRequest is a partial update. teacherId is not accepted.
type UpdateCourseRequest struct {
	CourseName   *string `json:"courseName"   binding:"omitempty,max=200"`
	Department   *string `json:"department"   binding:"omitempty,max=200"`
	CourseNumber *string `json:"courseNumber" binding:"omitempty,max=50"`
	Term         *string `json:"term"         binding:"omitempty,max=50"`
	Year         *string `json:"year"         binding:"omitempty,max=10"`
	Institution  *string `json:"institution"  binding:"omitempty,max=200"`
}

// Empty reports whether no field was supplied.
func (r *UpdateCourseRequest) Empty() bool {
	return r.CourseName == nil && r.Department == nil && r.CourseNumber == nil &&
		r.Term == nil && r.Year == nil && r.Institution == nil
}

// ── course responses ──

// TeacherSummary is the only teacher data exposed alongside a course.
type TeacherSummary struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CourseResponse is a course document with ids as strings.
type CourseResponse struct {
	ID           string          `json:"_id"`
	CourseName   string          `json:"courseName"`
	Department   string          `json:"department"`
	CourseNumber string          `json:"courseNumber"`
	Term         string          `json:"term"`
	Year         string          `json:"year"`
	Institution  string          `json:"institution"`
	TeacherID    string          `json:"teacherId"`
	CourseCode   *string         `json:"courseCode,omitempty"`
	Teacher      *TeacherSummary `json:"teacher,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
}

// CreateCourseResponse is returned with 201.
type CreateCourseResponse struct {
	Message  string `json:"message"`
	CourseID string `json:"courseId"`
}

// CourseCodeResponse carries a null code when none was generated.
type CourseCodeResponse struct {
	CourseCode *string `json:"courseCode"`
}

// StudentSummary is one roster row.
type StudentSummary struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	EnrollDate string `json:"enrollDate"`
}
