package common

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	fencePattern       = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSON 從模型輸出中取出 JSON 片段：優先取 ``` 區塊內容，
// 再取第一個 { 或 [ 到最後一個對應的 } 或 ]。找不到時回傳 false。
func ExtractJSON(raw string) (string, bool) {
	content := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")
	closing := byte('}')
	start := objStart
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		closing, start = ']', arrStart
	}
	if start == -1 {
		return "", false
	}
	end := strings.LastIndexByte(content, closing)
	if end <= start {
		return "", false
	}
	candidate := content[start : end+1]
	if !json.Valid([]byte(candidate)) {
		quoted := QuoteJSONKeys(candidate)
		if !json.Valid([]byte(quoted)) {
			return "", false
		}
		candidate = quoted
	}
	return candidate, true
}
