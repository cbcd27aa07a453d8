package nutrition

import (
	"regexp"
	"strings"
)

var (
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)
	itemSplitPattern     = regexp.MustCompile(`,|\n|\band\b`)
	ordinalPattern       = regexp.MustCompile(`^\d+[.)]\s+`)

	// 模型無法辨識時常見的回覆開頭
	unidentifiedPrefixes = []string{
		"unable to identify",
		"cannot identify",
		"can't identify",
		"could not identify",
		"couldn't identify",
		"not able to identify",
		"unknown",
		"no food",
	}
)

// IsUnidentified 判斷模型輸出是否為「無法辨識」的回覆
func IsUnidentified(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, " .!\"'`*")
	if s == "" || s == "none" || s == "n/a" {
		return true
	}
	for _, prefix := range unidentifiedPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// NormalizeItems 將模型列出的食物文字拆成乾淨的品項名稱
func NormalizeItems(raw string) []string {
	stripped := parentheticalPattern.ReplaceAllString(raw, "")

	items := make([]string, 0)
	for _, fragment := range itemSplitPattern.Split(stripped, -1) {
		name := strings.TrimSpace(fragment)
		name = ordinalPattern.ReplaceAllString(name, "")
		if i := strings.Index(name, " - "); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name != "" {
			items = append(items, name)
		}
	}
	return items
}
