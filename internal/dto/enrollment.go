package dto

// EnrollRequest joins a course by code. StudentID must be the caller.
type EnrollRequest struct {
	CourseCode string `json:"courseCode" binding:"required"`
	StudentID  string `json:"studentId"  binding:"required,objectid"`
}

// EnrollResponse reports the joined course. AlreadyEnrolled is true when the
// student was enrolled before this call.
type EnrollResponse struct {
	Message         string         `json:"message"`
	Course          CourseResponse `json:"course"`
	AlreadyEnrolled bool           `json:"alreadyEnrolled"`
}
