package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 帳號或密碼錯誤
var ErrInvalidCredentials = common.NewError(common.ErrCodeUnauthorized, "invalid credentials", http.StatusUnauthorized, nil)

// ErrInvalidToken token 無效或已過期
var ErrInvalidToken = common.NewError(common.ErrCodeUnauthorized, "invalid token", http.StatusUnauthorized, nil)

// Claims token 內容
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Users 帳號存取
type Users interface {
	Create(ctx context.Context, user *storage.User) error
	FindByUsername(ctx context.Context, username string) (*storage.User, error)
}

// Session 登入或註冊的結果
type Session struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// Service 身分驗證服務
type Service struct {
	users  Users
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService 創建身分驗證服務
func NewService(users Users, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register 註冊新帳號並簽發 token
func (s *Service) Register(ctx context.Context, username, password, name string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.BadRequest("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.Internal("failed to hash password", err)
	}

	user := &storage.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, err
		}
		return nil, common.Internal("failed to create user", err)
	}

	return s.issue(user)
}

// Login 驗證密碼並簽發 token
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, common.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Verify 驗證 token 並取出內容
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)

	return &Claims{UserID: uint(id), Username: username, Email: email}, nil
}

// issue 簽發 HS256 token
func (s *Service) issue(user *storage.User) (*Session, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, common.Internal("failed to sign token", err)
	}
	return &Session{Token: signed, UserID: user.ID, Username: user.Username}, nil
}
