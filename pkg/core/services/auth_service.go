package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 7 * 24 * time.Hour

// Claims is the catalog's JWT payload, shared with the auth middleware.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users  ports.UserRepository
	secret []byte
}

func NewAuthService(users ports.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{users: users, secret: []byte(jwtSecret)}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", &domain.ValidationError{Msg: "User already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		// First Google sign-in creates the account. No password hash means
		// a password login for this email can never succeed.
		user = &domain.User{
			Email:     email,
			Role:      domain.RoleUser,
			CreatedAt: time.Now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return "", err
		}
	}

	return s.issueToken(user)
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Resource: "User"}
	}
	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

var _ ports.AuthService = (*AuthService)(nil)
