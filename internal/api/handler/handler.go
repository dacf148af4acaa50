package handler

import "learnloop/internal/service"

// Handler groups every HTTP handler.
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Material   *MaterialHandler
	Export     *ExportHandler
}

// NewHandler builds the handlers on top of the services.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Course:     NewCourseHandler(svc.Course),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Material:   NewMaterialHandler(svc.Material),
		Export:     NewExportHandler(svc.Export),
	}
}
