package recipe

import (
	"context"
	"strings"

	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

// 年齡分組
const (
	AgeChild = "child"
	AgeAdult = "adult"
	AgeOld   = "old"
)

// MealTimes 允許的用餐時段，依固定順序
var MealTimes = []string{"breakfast", "lunch", "snacks", "dinner"}

// FilterSet 推薦篩選條件
type FilterSet struct {
	Times    []string `json:"times"`
	Age      string   `json:"age"`
	Diabetic bool     `json:"diabetic"`
}

// FilterOverride 呼叫端提供的覆寫值，nil 或空值表示沿用
type FilterOverride struct {
	Times    []string `json:"times,omitempty"`
	Age      *string  `json:"age,omitempty"`
	Diabetic *bool    `json:"diabetic,omitempty"`
}

// Profile 篩選條件所需的使用者資料
type Profile struct {
	Age      *int
	Diabetic *bool
}

// ProfileReader 讀取使用者資料，找不到時回傳 nil
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uint) (*Profile, error)
}

// ResolveDefaults 由使用者資料推導預設篩選條件
func ResolveDefaults(p *Profile) FilterSet {
	fs := FilterSet{
		Times:    allTimes(),
		Age:      AgeAdult,
		Diabetic: false,
	}
	if p == nil {
		return fs
	}
	if p.Age != nil {
		fs.Age = AgeBucket(*p.Age)
	}
	if p.Diabetic != nil {
		fs.Diabetic = *p.Diabetic
	}
	return fs
}

// DefaultsFor 讀取使用者資料並推導預設值；讀取失敗時使用無資料預設值
func DefaultsFor(ctx context.Context, reader ProfileReader, userID uint) FilterSet {
	if reader == nil || userID == 0 {
		return ResolveDefaults(nil)
	}
	p, err := reader.GetProfile(ctx, userID)
	if err != nil {
		common.LogWarn("讀取使用者資料失敗，使用預設篩選", zap.Uint("user_id", userID), zap.Error(err))
		return ResolveDefaults(nil)
	}
	return ResolveDefaults(p)
}

// AgeBucket 年齡分組：13 歲以下 child，60 歲以上 old
func AgeBucket(age int) string {
	switch {
	case age < 13:
		return AgeChild
	case age >= 60:
		return AgeOld
	default:
		return AgeAdult
	}
}

// MergeFilters 以覆寫值取代基礎值；時段覆寫過濾後為空則沿用基礎值
func MergeFilters(base FilterSet, override *FilterOverride) FilterSet {
	merged := FilterSet{
		Times:    append([]string(nil), base.Times...),
		Age:      base.Age,
		Diabetic: base.Diabetic,
	}
	if override == nil {
		return merged
	}

	if times := filterTimes(override.Times); len(times) > 0 {
		merged.Times = times
	}
	if override.Age != nil {
		if age, ok := validAge(*override.Age); ok {
			merged.Age = age
		}
	}
	if override.Diabetic != nil {
		merged.Diabetic = *override.Diabetic
	}
	return merged
}

// filterTimes 只保留允許的時段，轉小寫並去重
func filterTimes(times []string) []string {
	seen := make(map[string]bool, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		t = strings.ToLower(strings.TrimSpace(t))
		if !isMealTime(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func isMealTime(t string) bool {
	for _, m := range MealTimes {
		if m == t {
			return true
		}
	}
	return false
}

func validAge(age string) (string, bool) {
	switch a := strings.ToLower(strings.TrimSpace(age)); a {
	case AgeChild, AgeAdult, AgeOld:
		return a, true
	default:
		return "", false
	}
}

func allTimes() []string {
	return append([]string(nil), MealTimes...)
}
