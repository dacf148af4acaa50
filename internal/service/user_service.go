package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"learnloop/internal/dto"
	"learnloop/internal/model"
	"learnloop/internal/repository"
)

// UserService profile reads and self-service updates.
type UserService interface {
	// Get returns a profile. Callers may read themselves; teachers may read
	// any user.
	Get(ctx context.Context, caller Identity, userID string) (*dto.UserResponse, error)
	Update(ctx context.Context, caller Identity, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, caller Identity, userID string, req *dto.ChangePasswordRequest) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *userService) Get(ctx context.Context, caller Identity, userID string) (*dto.UserResponse, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	if userID == caller.UserID {
		return s.load(ctx, caller.Role, id)
	}
	if caller.Role != model.RoleTeacher {
		return nil, ErrForbiddenSelf
	}

	// teachers look up students first; they are the usual target
	resp, err := s.load(ctx, model.RoleStudent, id)
	if errors.Is(err, ErrUserNotFound) {
		return s.load(ctx, model.RoleTeacher, id)
	}
	return resp, err
}

func (s *userService) load(ctx context.Context, role string, id primitive.ObjectID) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("role", role), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, caller Identity, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}
	if userID != caller.UserID {
		return nil, ErrForbiddenSelf
	}

	set := map[string]interface{}{}
	if req.FirstName != nil {
		set["firstName"] = cleanText(*req.FirstName)
	}
	if req.LastName != nil {
		set["lastName"] = cleanText(*req.LastName)
	}
	if req.Email != nil {
		set["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Institution != nil {
		set["institution"] = cleanText(*req.Institution)
	}
	if len(set) == 0 {
		return s.load(ctx, caller.Role, id)
	}

	user, err := s.repo.User.UpdateProfile(ctx, caller.Role, id, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("update user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *userService) ChangePassword(ctx context.Context, caller Identity, userID string, req *dto.ChangePasswordRequest) error {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return err
	}
	if userID != caller.UserID {
		return ErrForbiddenSelf
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, caller.Role, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("update password failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}
