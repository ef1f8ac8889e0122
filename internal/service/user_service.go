package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/pkg/jwt"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService handles user-related operations
type UserService struct {
	db  *gorm.DB
	jwt *jwt.Service
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, jwtService *jwt.Service) *UserService {
	return &UserService{db: db, jwt: jwtService}
}

// CreateUser registers a new account and returns it with a fresh token
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error) {
	email := models.NormalizeEmail(req.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, "", ErrUserAlreadyExists
	}

	user := models.User{
		Name:     req.Name,
		Email:    email,
		Password: req.Password,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.JWTRole())
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return &user, token, nil
}

// Login authenticates by email, case-insensitively, and returns a token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	user.LastLogin = time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(user).Update("last_login", user.LastLogin).Error; err != nil {
		return nil, "", fmt.Errorf("record login: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.JWTRole())
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
