package recipe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"nutriguard/internal/pkg/common"
)

// Dish 推薦料理
type Dish struct {
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Justification string             `json:"justification,omitempty"`
	ImageURL      *string            `json:"image_url"`
	Steps         []string           `json:"steps,omitempty"`
	Nutrition     map[string]float64 `json:"nutrition,omitempty"`
	Ingredients   []string           `json:"ingredients,omitempty"`
}

// SourceKind 料理清單來源格式
type SourceKind int

const (
	// FreeText 純文字行
	FreeText SourceKind = iota
	// Structured JSON 陣列，元素為物件或字串
	Structured
)

// DishSource 模型輸出的料理清單，在邊界解析一次
type DishSource struct {
	Kind  SourceKind
	Items []interface{}
	Lines []string
}

var (
	dishLinePattern = regexp.MustCompile(`^\s*(?:\d+[.)]\s*)?([^:•\-]+?)\s*(?:[:•\-]\s*(.*))?$`)
	bulletPattern   = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	headerPrefixes  = []string{"ingredients", "suggested dishes"}
)

// DecodeDishOutput 判斷模型輸出為 JSON（含 ``` 區塊）或純文字
func DecodeDishOutput(raw string) DishSource {
	if candidate, ok := common.ExtractJSON(raw); ok {
		var v interface{}
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			if obj, ok := v.(map[string]interface{}); ok {
				if dishes, found := obj["dishes"]; found {
					v = dishes
				}
			}
			if src := DecodeDishValue(v); len(src.Items) > 0 || len(src.Lines) > 0 {
				return src
			}
		}
	}
	return DishSource{Kind: FreeText, Lines: splitLines(raw)}
}

// DecodeDishValue 由已解析的 JSON 值建立來源
func DecodeDishValue(v interface{}) DishSource {
	switch val := v.(type) {
	case []interface{}:
		items := make([]interface{}, 0, len(val))
		for _, item := range val {
			switch item.(type) {
			case map[string]interface{}, string:
				items = append(items, item)
			}
		}
		return DishSource{Kind: Structured, Items: items}
	case map[string]interface{}:
		return DishSource{Kind: Structured, Items: []interface{}{val}}
	case string:
		return DishSource{Kind: FreeText, Lines: splitLines(val)}
	default:
		return DishSource{Kind: FreeText}
	}
}

// NormalizeDishes 轉為統一的料理清單，保留順序且不去重，不會失敗
func NormalizeDishes(src DishSource) []Dish {
	dishes := make([]Dish, 0)
	switch src.Kind {
	case Structured:
		for _, item := range src.Items {
			switch v := item.(type) {
			case map[string]interface{}:
				if d, ok := dishFromObject(v); ok {
					dishes = append(dishes, d)
				}
			case string:
				dishes = append(dishes, parseDishLines(splitLines(v))...)
			}
		}
	default:
		dishes = append(dishes, parseDishLines(src.Lines)...)
	}
	return dishes
}

// ParseDishes 解析模型輸出為料理清單
func ParseDishes(raw string) []Dish {
	return NormalizeDishes(DecodeDishOutput(raw))
}

// dishFromObject 複製名稱、描述、理由與圖片
func dishFromObject(obj map[string]interface{}) (Dish, bool) {
	d := Dish{
		Name:          asText(obj["name"]),
		Description:   asText(obj["description"]),
		Justification: asText(obj["justification"]),
	}
	if d.Name == "" {
		return Dish{}, false
	}
	if img := asText(obj["image_url"]); img != "" {
		d.ImageURL = &img
	}
	return d, true
}

// parseDishLines 逐行解析，無法解析的行直接略過
func parseDishLines(lines []string) []Dish {
	dishes := make([]Dish, 0, len(lines))
	for _, line := range lines {
		if d, ok := parseDishLine(line); ok {
			dishes = append(dishes, d)
		}
	}
	return dishes
}

func parseDishLine(line string) (Dish, bool) {
	line = strings.TrimSpace(line)
	if line == "" || isHeader(line) {
		return Dish{}, false
	}
	line = bulletPattern.ReplaceAllString(line, "")

	m := dishLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Dish{}, false
	}
	name := cleanMarkdown(m[1])
	if name == "" {
		return Dish{}, false
	}
	return Dish{Name: name, Description: cleanMarkdown(m[2])}, true
}

// isHeader 判斷是否為段落標題
func isHeader(line string) bool {
	s := strings.ToLower(cleanMarkdown(strings.TrimLeft(line, "# ")))
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func cleanMarkdown(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_`"))
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// asText 將任意 JSON 值轉為去除空白的字串
func asText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
