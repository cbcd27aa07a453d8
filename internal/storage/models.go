package storage

import (
	"time"

	"gorm.io/gorm"
)

// User 使用者帳號
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"size:128" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile 使用者健康資料
type Profile struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name       string    `gorm:"size:128" json:"name"`
	Age        *int      `json:"age"`
	Height     *float64  `json:"height"`
	Weight     *float64  `json:"weight"`
	Gender     string    `gorm:"size:32" json:"gender"`
	IsDiabetic *bool     `json:"is_diabetic"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DailyMetric 每日營養總和，每位使用者每天一筆
type DailyMetric struct {
	ID           uint       `gorm:"primarykey" json:"-"`
	UserID       uint       `gorm:"uniqueIndex:idx_metric_user_day;not null" json:"-"`
	Day          string     `gorm:"size:10;uniqueIndex:idx_metric_user_day;not null" json:"day"`
	Calories     float64    `json:"calories"`
	Protein      float64    `json:"protein"`
	Carbs        float64    `json:"carbs"`
	Fat          float64    `json:"fat"`
	Sugar        float64    `json:"sugar"`
	Fiber        float64    `json:"fiber"`
	GoalAchieved bool       `json:"goal_achieved"`
	Meals        []MealItem `gorm:"foreignKey:MetricID;constraint:OnDelete:CASCADE" json:"meals,omitempty"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MealItem 單一餐點品項
type MealItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	MetricID    uint      `gorm:"index;not null" json:"-"`
	Name        string    `gorm:"size:255" json:"name"`
	QueriedItem string    `gorm:"size:255" json:"queried_item,omitempty"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fat         float64   `json:"fat"`
	Sugar       float64   `json:"sugar"`
	Fiber       float64   `json:"fiber"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScanRecord 掃描紀錄
type ScanRecord struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"-"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Summary   string    `gorm:"type:text" json:"summary"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	ImageURL  string    `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// 掃描類型
const (
	ScanFood        = "food"
	ScanIngredients = "ingredients"
	ScanSuggestions = "suggestions"
)

// Migrate 建立或更新資料表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Profile{},
		&DailyMetric{},
		&MealItem{},
		&ScanRecord{},
	)
}
