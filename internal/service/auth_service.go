package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"learnloop/internal/dto"
	"learnloop/internal/model"
	"learnloop/internal/repository"
	"learnloop/pkg/jwt"
)

// AuthService registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Logout revokes the token with the given ID. A blank jti is a no-op.
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, caller Identity) (*dto.UserResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil.
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	user := model.NewUser(req.Role)
	if user == nil {
		return nil, ErrInvalidRole
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrMissingField("username")
	}

	// 1. fast path for the common duplicate; the unique index covers races
	_, err := s.repo.User.GetByUsername(ctx, req.Role, username)
	if err == nil {
		return nil, ErrDuplicateUser
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("lookup username failed", zap.String("role", req.Role), zap.Error(err))
		return nil, err
	}

	// 2. hash
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	p := user.GetProfile()
	p.Username = username
	p.PasswordHash = hash
	p.Email = strings.TrimSpace(req.Email)
	p.FirstName = cleanText(req.FirstName)
	p.LastName = cleanText(req.LastName)
	p.Institution = cleanText(req.Institution)

	// 3. insert
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		s.logger.Error("create user failed", zap.String("role", req.Role), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered", zap.String("role", req.Role), zap.String("user_id", p.ID.Hex()))

	return &dto.RegisterResponse{
		Message: "Registration successful as " + req.Role,
		UserID:  p.ID.Hex(),
	}, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	// 1. lookup
	user, err := s.repo.User.GetByUsername(ctx, req.Role, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.String("role", req.Role), zap.Error(err))
		return nil, err
	}

	// 2. verify password
	p := user.GetProfile()
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. issue token
	token, err := s.jwtMgr.GenerateAccessToken(p.ID.Hex(), user.GetRole())
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		UserResponse: toUserResponse(user),
		AccessToken:  token,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" || s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("blacklist token failed", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, caller Identity) (*dto.UserResponse, error) {
	id, err := parseID(caller.UserID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, caller.Role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// toUserResponse renders a profile without the password hash. _id and
// userId carry the same value.
func toUserResponse(user model.User) dto.UserResponse {
	p := user.GetProfile()
	return dto.UserResponse{
		ID:          p.ID.Hex(),
		UserID:      p.ID.Hex(),
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Institution: p.Institution,
		Role:        user.GetRole(),
		CreatedAt:   dto.FormatTime(p.CreatedAt),
	}
}

// bcrypt only reads the first 72 bytes; binding limits runes, not bytes.
const maxPasswordBytes = 72

func hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
