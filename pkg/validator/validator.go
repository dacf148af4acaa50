package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Register installs the custom tags on gin's validator engine. Call once at
// startup before the router is built.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return v.RegisterValidation("objectid", validateObjectID)
}

func validateObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

// FormatValidationError turns binding errors into a single readable line.
// The first failing field is reported as "Missing <field>" to match what
// clients already display.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return "Invalid request body"
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing %s", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "objectid":
		return fmt.Sprintf("%s is not a valid id", field)
	case "min":
		if fe.Type().Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// getFieldName maps Go field names back to the JSON names clients send.
func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username":     "username",
		"Password":     "password",
		"Role":         "role",
		"FirstName":    "firstName",
		"LastName":     "lastName",
		"Email":        "email",
		"Institution":  "institution",
		"CourseName":   "courseName",
		"Department":   "department",
		"CourseNumber": "courseNumber",
		"Term":         "term",
		"Year":         "year",
		"TeacherID":    "teacherId",
		"CourseCode":   "courseCode",
		"StudentID":    "studentId",
		"Title":        "title",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
