package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"retailhub/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email is already registered")
)

const tokenTTL = 24 * time.Hour

// Claims содержимое токена сессии. Subject is the user id and doubles as the session id.
type Claims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult токен и пользователь без пароля
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService учётные записи и токены сессий
type AuthService struct {
	secret []byte
	deps

	mu    sync.RWMutex
	users []domain.User
}

func NewAuthService(secret []byte, opts ...Option) *AuthService {
	return &AuthService{secret: secret, deps: newDeps(opts), users: SeedUsers()}
}

// SeedUsers тестовые учётные записи
func SeedUsers() []domain.User {
	return []domain.User{
		{ID: "admin1", Name: "Admin User", Email: "admin@example.com", Password: "password123", Role: domain.RoleAdmin},
		{ID: "user1", Name: "Jane Doe", Email: "user@example.com", Password: "password123", Role: domain.RoleUser},
	}
}

func (s *AuthService) findByEmail(email string) (domain.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	s.mu.RLock()
	u, ok := s.findByEmail(strings.TrimSpace(email))
	s.mu.RUnlock()
	if !ok || u.Password != password {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(u)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	s.log.WithField("user_id", u.ID).Info("user logged in")
	return &LoginResult{Token: token, User: u}, nil
}

// Register creates a regular user. It does not log the user in.
func (s *AuthService) Register(name, email, password string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, invalid("name, email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.findByEmail(email); taken {
		return nil, ErrEmailTaken
	}
	u := domain.User{ID: "u-" + uuid.NewString(), Name: name, Email: email, Password: password, Role: domain.RoleUser}
	s.users = append(s.users, u)
	u.Password = ""
	return &u, nil
}

// ValidateToken parses the token and returns the current user record.
func (s *AuthService) ValidateToken(tokenString string) (*domain.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == claims.Subject {
			u.Password = ""
			return &u, nil
		}
	}
	return nil, ErrInvalidToken
}

func (s *AuthService) generateJWT(u domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
