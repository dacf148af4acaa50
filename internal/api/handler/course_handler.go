package handler

import (
	"github.com/gin-gonic/gin"

	"learnloop/internal/dto"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// CourseHandler course catalog endpoints. Ownership of :courseId is checked
// by middleware.CourseOwner before these run.
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// CreateCourse
// POST /api/courses/create
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, result)
}

// ListTeacherCourses always answers 200; failures yield an empty list.
// GET /api/courses/teacher/:teacherId
func (h *CourseHandler) ListTeacherCourses(c *gin.Context) {
	list := h.courseSvc.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if list.Err != nil {
		_ = c.Error(list.Err)
	}

	response.OK(c, gin.H{"courses": list.Items})
}

// GetCourse
// GET /api/courses/:courseId
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetWithTeacher(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"course": course})
}

// UpdateCourse
// PUT /api/courses/:courseId
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("courseId"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"course": course})
}

// DeleteCourse removes the course, its enrollments and its materials.
// DELETE /api/courses/:courseId
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("courseId")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "Course deleted successfully")
}

// GetCode returns the current enrollment code, or null.
// GET /api/courses/:courseId/code
func (h *CourseHandler) GetCode(c *gin.Context) {
	code, err := h.courseSvc.GetCode(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, dto.CourseCodeResponse{CourseCode: code})
}

// GenerateCode replaces the enrollment code.
// POST /api/courses/:courseId/code/generate
func (h *CourseHandler) GenerateCode(c *gin.Context) {
	code, err := h.courseSvc.GenerateCode(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, dto.CourseCodeResponse{CourseCode: &code})
}

// ListStudents returns the roster.
// GET /api/courses/:courseId/students
func (h *CourseHandler) ListStudents(c *gin.Context) {
	students, err := h.courseSvc.ListStudents(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"students": students})
}

// RemoveStudent drops a student from the course.
// DELETE /api/courses/:courseId/students/:studentId
func (h *CourseHandler) RemoveStudent(c *gin.Context) {
	if err := h.courseSvc.RemoveStudent(c.Request.Context(), c.Param("courseId"), c.Param("studentId")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "Student removed from course")
}
