package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learnloop/internal/dto"
	"learnloop/pkg/events"
	"learnloop/pkg/storage"
)

// Object metadata keys attached to every material.
const (
	metaTitle            = "title"
	metaOriginalFilename = "original_filename"
	metaDescription      = "description"

	pdfContentType = "application/pdf"
)

// UploadInput is one material to store.
type UploadInput struct {
	Title       string
	Description string
	Filename    string
	Body        io.Reader
	Size        int64
}

// MaterialService course files kept in the object store under
// courses/{courseId}/. Nothing about them is stored in the database.
type MaterialService interface {
	Upload(ctx context.Context, courseID string, in UploadInput) (*dto.UploadMaterialResponse, error)
	List(ctx context.Context, courseID string) ([]dto.MaterialResponse, error)
	// Delete refuses keys outside the course prefix with ErrForbiddenPath.
	Delete(ctx context.Context, courseID, fileKey string) error
	// DeleteAll removes every material of the course and returns the count.
	DeleteAll(ctx context.Context, courseID string) (int, error)
}

type materialService struct {
	store      storage.ObjectStore
	publisher  events.Publisher
	presignTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewMaterialService creates a MaterialService.
func NewMaterialService(store storage.ObjectStore, publisher events.Publisher, presignTTL time.Duration, logger *zap.Logger) MaterialService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &materialService{
		store:      store,
		publisher:  publisher,
		presignTTL: presignTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// ── keys ──

// coursePrefix is the namespace of one course's materials.
func coursePrefix(courseID string) string {
	return "courses/" + courseID + "/"
}

// materialKey builds courses/{courseId}/{YYYYmmdd_HHMMSS}_{8 hex}.pdf.
func materialKey(courseID string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%s_%s.pdf", coursePrefix(courseID), now.UTC().Format("20060102_150405"), suffix)
}

// keyInCourse reports whether key is a plain object directly or indirectly
// under the course prefix. Keys that change under path cleaning are refused.
func keyInCourse(courseID, key string) bool {
	prefix := coursePrefix(courseID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return false
	}
	return path.Clean(key) == key
}

// titleFromKey is the fallback title: the last path segment.
func titleFromKey(key string) string {
	return path.Base(key)
}

// ── metadata ──

// encodeMeta makes a value safe for an HTTP header.
func encodeMeta(v string) string {
	return url.QueryEscape(v)
}

func decodeMeta(v string) string {
	if d, err := url.QueryUnescape(v); err == nil {
		return d
	}
	return v
}

// ────────────────────── Upload ──────────────────────

func (s *materialService) Upload(ctx context.Context, courseID string, in UploadInput) (*dto.UploadMaterialResponse, error) {
	if _, err := parseID(courseID, ErrInvalidCourseID); err != nil {
		return nil, err
	}
	if in.Body == nil || in.Filename == "" {
		return nil, ErrMissingFile
	}
	if !strings.EqualFold(path.Ext(in.Filename), ".pdf") {
		return nil, ErrUnsupportedFileType
	}

	title := cleanText(in.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	meta := map[string]string{
		metaTitle:            encodeMeta(title),
		metaOriginalFilename: encodeMeta(path.Base(in.Filename)),
	}
	if d := cleanText(in.Description); d != "" {
		meta[metaDescription] = encodeMeta(d)
	}

	key := materialKey(courseID, s.now())
	if err := s.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        in.Body,
		Size:        in.Size,
		ContentType: pdfContentType,
		Metadata:    meta,
	}); err != nil {
		s.logger.Error("upload material failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("material uploaded", zap.String("course_id", courseID), zap.String("key", key))
	publish(ctx, s.publisher, s.logger, events.SubjectMaterialUploaded, map[string]string{
		"courseId": courseID,
		"key":      key,
		"title":    title,
	})

	return &dto.UploadMaterialResponse{
		Message: "File uploaded successfully",
		FileKey: key,
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *materialService) List(ctx context.Context, courseID string) ([]dto.MaterialResponse, error) {
	if _, err := parseID(courseID, ErrInvalidCourseID); err != nil {
		return nil, err
	}

	objects, err := s.store.List(ctx, coursePrefix(courseID))
	if err != nil {
		s.logger.Error("list materials failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	files := make([]dto.MaterialResponse, 0, len(objects))
	for _, obj := range objects {
		f := dto.MaterialResponse{
			Key:          obj.Key,
			Title:        titleFromKey(obj.Key),
			Size:         obj.Size,
			LastModified: dto.FormatTime(obj.LastModified),
		}

		if head, err := s.store.Head(ctx, obj.Key); err != nil {
			s.logger.Warn("read material metadata failed", zap.String("key", obj.Key), zap.Error(err))
		} else if t := head.Metadata[metaTitle]; t != "" {
			f.Title = decodeMeta(t)
		}

		if u, err := s.store.PresignGet(ctx, obj.Key, s.presignTTL); err != nil {
			s.logger.Warn("presign material failed", zap.String("key", obj.Key), zap.Error(err))
		} else {
			f.URL = u
		}

		files = append(files, f)
	}
	return files, nil
}

// ────────────────────── Delete ──────────────────────

func (s *materialService) Delete(ctx context.Context, courseID, fileKey string) error {
	if _, err := parseID(courseID, ErrInvalidCourseID); err != nil {
		return err
	}
	if fileKey == "" {
		return ErrMissingFileKey
	}
	if !keyInCourse(courseID, fileKey) {
		s.logger.Warn("refused material delete outside course",
			zap.String("course_id", courseID),
			zap.String("key", fileKey),
		)
		return ErrForbiddenPath
	}

	if err := s.store.Delete(ctx, fileKey); err != nil {
		s.logger.Error("delete material failed", zap.String("key", fileKey), zap.Error(err))
		return err
	}

	s.logger.Info("material deleted", zap.String("course_id", courseID), zap.String("key", fileKey))
	return nil
}

func (s *materialService) DeleteAll(ctx context.Context, courseID string) (int, error) {
	if _, err := parseID(courseID, ErrInvalidCourseID); err != nil {
		return 0, err
	}

	objects, err := s.store.List(ctx, coursePrefix(courseID))
	if err != nil {
		s.logger.Error("list materials for delete failed", zap.String("course_id", courseID), zap.Error(err))
		return 0, err
	}

	var errs []error
	removed := 0
	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		s.logger.Error("delete course materials incomplete",
			zap.String("course_id", courseID),
			zap.Int("removed", removed),
			zap.Int("failed", len(errs)),
		)
		return removed, errors.Join(errs...)
	}
	return removed, nil
}
