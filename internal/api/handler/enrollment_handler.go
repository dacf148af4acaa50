package handler

import (
	"github.com/gin-gonic/gin"

	"learnloop/internal/dto"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// EnrollmentHandler student enrollment endpoints.
type EnrollmentHandler struct {
	enrollSvc service.EnrollmentService
}

// NewEnrollmentHandler creates an EnrollmentHandler.
func NewEnrollmentHandler(enrollSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollSvc: enrollSvc}
}

// Enroll joins a course by code. Repeating the call is harmless.
// POST /api/courses/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.enrollSvc.Enroll(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, result)
}

// ListStudentCourses always answers 200; failures yield an empty list.
// GET /api/courses/student/:studentId
func (h *EnrollmentHandler) ListStudentCourses(c *gin.Context) {
	list := h.enrollSvc.ListForStudent(c.Request.Context(), c.Param("studentId"))
	if list.Err != nil {
		_ = c.Error(list.Err)
	}

	response.OK(c, gin.H{"courses": list.Items})
}
