package nutrition

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DailyCalorieGoal 每日熱量目標（固定值）
const DailyCalorieGoal = 2500

// Amount 寬鬆解析的數值：數字或數字字串，其他內容一律視為 0
type Amount float64

// UnmarshalJSON 解析失敗時設為 0 而不回傳錯誤
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
	} else {
		text = string(data)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*a = Amount(v)
	return nil
}

// Float 轉為 float64
func (a Amount) Float() float64 {
	return float64(a)
}

// Record 單一品項的營養資料
type Record struct {
	Name          string `json:"name"`
	Calories      Amount `json:"calories"`
	Protein       Amount `json:"protein_g"`
	Carbohydrates Amount `json:"carbohydrates_total_g"`
	Fat           Amount `json:"fat_total_g"`
	Sugar         Amount `json:"sugar_g"`
	Fiber         Amount `json:"fiber_g"`
	QueriedItem   string `json:"queried_item"`
}

// Totals 營養總和
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sugar    float64 `json:"sugar"`
	Fiber    float64 `json:"fiber"`
}

// Add 累加另一份總和並重新四捨五入
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: Round2(t.Calories + o.Calories),
		Protein:  Round2(t.Protein + o.Protein),
		Carbs:    Round2(t.Carbs + o.Carbs),
		Fat:      Round2(t.Fat + o.Fat),
		Sugar:    Round2(t.Sugar + o.Sugar),
		Fiber:    Round2(t.Fiber + o.Fiber),
	}
}

// Summary 品項與總和
type Summary struct {
	Items  []Record `json:"items"`
	Totals Totals   `json:"totals"`
}

// Aggregate 加總所有品項的營養，每個欄位四捨五入到小數第二位
func Aggregate(records []Record) Summary {
	var t Totals
	for _, r := range records {
		t.Calories += r.Calories.Float()
		t.Protein += r.Protein.Float()
		t.Carbs += r.Carbohydrates.Float()
		t.Fat += r.Fat.Float()
		t.Sugar += r.Sugar.Float()
		t.Fiber += r.Fiber.Float()
	}

	if records == nil {
		records = []Record{}
	}
	return Summary{
		Items: records,
		Totals: Totals{
			Calories: Round2(t.Calories),
			Protein:  Round2(t.Protein),
			Carbs:    Round2(t.Carbs),
			Fat:      Round2(t.Fat),
			Sugar:    Round2(t.Sugar),
			Fiber:    Round2(t.Fiber),
		},
	}
}

// Round2 四捨五入到小數第二位
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GoalAchieved 當日熱量是否落在目標的 80% 到 120%（含）之間
func GoalAchieved(calories float64) bool {
	low := float64(DailyCalorieGoal * 80 / 100)
	high := float64(DailyCalorieGoal * 120 / 100)
	return calories >= low && calories <= high
}
