package storage

import (
	"context"
	"errors"
	"fmt"

	"nutriguard/internal/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserExists 使用者名稱已被註冊
var ErrUserExists = common.ErrConflict.WithMessage("username already registered")

// UserStore 使用者帳號存取
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 創建使用者存取
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create 建立使用者，名稱重複時回傳 ErrUserExists
func (s *UserStore) Create(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// FindByUsername 依名稱查詢，找不到回傳 common.ErrNotFound
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByID 依 ID 查詢
func (s *UserStore) FindByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ProfileStore 使用者健康資料存取
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore 創建健康資料存取
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get 讀取使用者資料，尚未建立時回傳 nil
func (s *ProfileStore) Get(ctx context.Context, userID uint) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// Upsert 建立或整筆更新使用者資料
func (s *ProfileStore) Upsert(ctx context.Context, profile *Profile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "age", "height", "weight", "gender", "is_diabetic", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// notFound 將 gorm 找不到轉為 common.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	return fmt.Errorf("query failed: %w", err)
}
