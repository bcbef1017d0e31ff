package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"shopper-backend/internal/apperr"
	"shopper-backend/internal/dto"
	"shopper-backend/internal/mailer"
	"shopper-backend/internal/model"
	"shopper-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72

	defaultTokenTTL = 15 * time.Minute
)

type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, email, newPassword string) error
	Profile(ctx context.Context, userID uint) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, userID uint, newPassword string) error

	IssueToken(subject string, ttl time.Duration) (string, error)
	VerifyToken(token string) (string, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type userServiceImpl struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	secret   []byte
	tokenTTL time.Duration
}

func NewUserService(
	userRepo repository.UserRepository,
	m mailer.Mailer,
	secret string,
	tokenTTL time.Duration,
) UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &userServiceImpl{
		userRepo: userRepo,
		mailer:   m,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// HashPassword pre-hashes with sha256 (base64-encoded) before bcrypt so
// long passphrases aren't silently truncated at bcrypt's 72-byte limit.
func HashPassword(password string) (string, error) {
	digest := sha256.Sum256([]byte(password))
	preHash := base64.StdEncoding.EncodeToString(digest[:])

	hashed, err := bcrypt.GenerateFromPassword([]byte(preHash), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(password, hash string) bool {
	digest := sha256.Sum256([]byte(password))
	preHash := base64.StdEncoding.EncodeToString(digest[:])

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(preHash)) == nil
}

func (s *userServiceImpl) IssueToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *userServiceImpl) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, err, "could not verify credentials")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperr.E(apperr.KindUnauthorized, "could not verify credentials")
	}

	return claims.Subject, nil
}

// Authenticate resolves a bearer token to an existing, active user.
func (s *userServiceImpl) Authenticate(ctx context.Context, token string) (*model.User, error) {
	email, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindUnauthorized, "user does not exist")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !user.IsActive {
		return nil, apperr.E(apperr.KindForbidden, "inactive user")
	}

	return user, nil
}

func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Email == "" || req.Name == "" {
		return nil, apperr.E(apperr.KindValidation, "name and email are required")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperr.E(apperr.KindConflict, "there is a user with this email")
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		HashPassword: hashed,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.mailer.SendWelcome(user.Email, user.Name)

	return toUserResponse(user), nil
}

func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindUnauthorized, "incorrect email or password")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !CheckPassword(password, user.HashPassword) {
		return nil, apperr.E(apperr.KindUnauthorized, "incorrect email or password")
	}

	if !user.IsActive {
		return nil, apperr.E(apperr.KindForbidden, "user account is disabled")
	}

	token, err := s.IssueToken(user.Email, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User: dto.UserSummary{
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// ForgotPassword never reveals whether the address exists; the reset mail
// only goes out when it does.
func (s *userServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	s.mailer.SendPasswordReset(user.Email, user.Name)
	return nil
}

func (s *userServiceImpl) ChangePassword(ctx context.Context, email, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.KindNotFound, "user not found")
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *userServiceImpl) Profile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return toUserResponse(user), nil
}

func (s *userServiceImpl) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *userServiceImpl) setPassword(ctx context.Context, userID uint, newPassword string) error {
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return apperr.E(apperr.KindValidation, "password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	return nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}
