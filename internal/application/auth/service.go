package auth

import (
	"context"
	"errors"
	"strings"

	"bonofacil-backend/internal/domain"
	"bonofacil-backend/internal/pkg/constants"
	"bonofacil-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserFinder looks a user up by credentials. Handlers depend on this so
// tests can swap the database out.
type UserFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error)
}

type Service struct {
	DB *gorm.DB
}

func (s *Service) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error) {
	return LoginUser(ctx, s.DB, LoginInput{Email: email, Password: password})
}

// SignUp registers an issuer or investor. Role defaults to investor.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = constants.Investor
	}

	switch {
	case !validation.IsValidUsername(username):
		return nil, ErrInvalidUsername
	case !validation.IsValidEmail(email):
		return nil, ErrInvalidEmail
	case !validation.IsValidPassword(in.Password):
		return nil, ErrInvalidPassword
	case !constants.IsValidRole(role):
		return nil, ErrInvalidRole
	}

	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// CurrentUser reloads the signed-in account so deleted users lose access.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return &u, nil
}

// LoginUser checks the password against the stored bcrypt hash.
func LoginUser(ctx context.Context, db *gorm.DB, input LoginInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}
