package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"learnloop/internal/model"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// CtxCourse holds the *model.Course loaded by CourseOwner or CourseMember.
const CtxCourse = "course"

type courseLoader func(ctx context.Context, caller service.Identity, courseID string) (*model.Course, error)

// CourseOwner lets the request through only when the caller is the teacher
// of the :courseId course.
func CourseOwner(access service.AccessService) gin.HandlerFunc {
	return courseGate(access.CourseForOwner)
}

// CourseMember also admits students actively enrolled in :courseId.
func CourseMember(access service.AccessService) gin.HandlerFunc {
	return courseGate(access.CourseForMember)
}

func courseGate(load courseLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		role := c.GetString(CtxRole)
		if userID == "" || role == "" {
			response.Unauthorized(c, 10002, "No authorization provided")
			c.Abort()
			return
		}

		course, err := load(c.Request.Context(), service.Identity{UserID: userID, Role: role}, c.Param("courseId"))
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		c.Set(CtxCourse, course)
		c.Next()
	}
}
