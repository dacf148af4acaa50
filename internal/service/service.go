package service

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"learnloop/config"
	"learnloop/internal/repository"
	"learnloop/pkg/events"
	"learnloop/pkg/jwt"
	"learnloop/pkg/storage"
)

// Service groups every service.
type Service struct {
	Auth       AuthService
	User       UserService
	Access     AccessService
	Course     CourseService
	Enrollment EnrollmentService
	Material   MaterialService
	Export     ExportService
}

// TokenBlacklist revokes access tokens before they expire.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps are the external collaborators shared by the services. Blacklist and
// Publisher may be nil.
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Store     storage.ObjectStore
	Publisher events.Publisher
	Logger    *zap.Logger
}

// NewService wires the services together.
func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}

	material := NewMaterialService(d.Store, d.Publisher, d.Config.Storage.PresignTTL, d.Logger)
	course := NewCourseService(d.Repo, material, d.Publisher, d.Logger)

	return &Service{
		Auth:       NewAuthService(d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:       NewUserService(d.Repo, d.Logger),
		Access:     NewAccessService(d.Repo, d.Logger),
		Course:     course,
		Enrollment: NewEnrollmentService(d.Repo, d.Publisher, d.Logger),
		Material:   material,
		Export:     NewExportService(course, d.Logger),
	}
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// SoftList is a listing that never fails outward. Err keeps the internal
// failure, if any, for logging; Skipped counts items dropped because they
// could not be resolved.
type SoftList[T any] struct {
	Items   []T
	Err     error
	Skipped int
}

func emptySoftList[T any](err error) SoftList[T] {
	return SoftList[T]{Items: []T{}, Err: err}
}

// parseID converts a hex id, returning invalid when it is malformed.
func parseID(hex string, invalid error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, invalid
	}
	return id, nil
}

var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips markup from user-supplied text and trims it.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// publish sends an event and only logs failures.
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, subject string, payload interface{}) {
	if err := pub.Publish(ctx, subject, payload); err != nil {
		logger.Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
	}
}
