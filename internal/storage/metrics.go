package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"nutriguard/internal/core/nutrition"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricsStore 每日營養與餐點存取
type MetricsStore struct {
	db    *gorm.DB
	locks *keyedMutex
}

// NewMetricsStore 創建每日營養存取
func NewMetricsStore(db *gorm.DB) *MetricsStore {
	return &MetricsStore{db: db, locks: newKeyedMutex()}
}

// RecordDay 將品項加入指定日期，累加當日總和並重新判斷是否達標
func (s *MetricsStore) RecordDay(ctx context.Context, userID uint, day string, items []nutrition.Record) (*DailyMetric, error) {
	unlock := s.locks.Lock(strconv.FormatUint(uint64(userID), 10) + ":" + day)
	defer unlock()

	added := nutrition.Aggregate(items).Totals
	var metric DailyMetric

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := DailyMetric{UserID: userID, Day: day}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to create day: %w", err)
		}
		if err := tx.Where("user_id = ? AND day = ?", userID, day).First(&metric).Error; err != nil {
			return fmt.Errorf("failed to load day: %w", err)
		}

		totals := nutrition.Totals{
			Calories: metric.Calories,
			Protein:  metric.Protein,
			Carbs:    metric.Carbs,
			Fat:      metric.Fat,
			Sugar:    metric.Sugar,
			Fiber:    metric.Fiber,
		}.Add(added)
		metric.applyTotals(totals)

		if err := tx.Model(&metric).Select("calories", "protein", "carbs", "fat", "sugar", "fiber", "goal_achieved").
			Updates(&metric).Error; err != nil {
			return fmt.Errorf("failed to update day: %w", err)
		}

		if len(items) == 0 {
			return nil
		}
		meals := make([]MealItem, 0, len(items))
		for _, it := range items {
			meals = append(meals, MealItem{
				MetricID:    metric.ID,
				Name:        it.Name,
				QueriedItem: it.QueriedItem,
				Calories:    it.Calories.Float(),
				Protein:     it.Protein.Float(),
				Carbs:       it.Carbohydrates.Float(),
				Fat:         it.Fat.Float(),
				Sugar:       it.Sugar.Float(),
				Fiber:       it.Fiber.Float(),
			})
		}
		if err := tx.Create(&meals).Error; err != nil {
			return fmt.Errorf("failed to append meals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

// GetDay 讀取指定日期與餐點，找不到回傳 common.ErrNotFound
func (s *MetricsStore) GetDay(ctx context.Context, userID uint, day string) (*DailyMetric, error) {
	var metric DailyMetric
	err := s.db.WithContext(ctx).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ? AND day = ?", userID, day).
		First(&metric).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &metric, nil
}

// ListDays 依日期新到舊列出每日總和
func (s *MetricsStore) ListDays(ctx context.Context, userID uint, limit int) ([]DailyMetric, error) {
	metrics := make([]DailyMetric, 0)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("day DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	return metrics, nil
}

// Totals 取出當日總和
func (m *DailyMetric) Totals() nutrition.Totals {
	return nutrition.Totals{
		Calories: m.Calories,
		Protein:  m.Protein,
		Carbs:    m.Carbs,
		Fat:      m.Fat,
		Sugar:    m.Sugar,
		Fiber:    m.Fiber,
	}
}

func (m *DailyMetric) applyTotals(t nutrition.Totals) {
	m.Calories = t.Calories
	m.Protein = t.Protein
	m.Carbs = t.Carbs
	m.Fat = t.Fat
	m.Sugar = t.Sugar
	m.Fiber = t.Fiber
	m.GoalAchieved = nutrition.GoalAchieved(t.Calories)
}

// keyedMutex 依鍵值序列化寫入
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock 取得鍵的鎖並回傳解鎖函式
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
