package quote

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// NormalizeLabel 规范化表头/区域标签：全角转半角、去除所有空白、统一大写
func NormalizeLabel(s string) string {
	s = width.Fold.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ContainsAny 检查规范化后的 text 是否包含任意一个关键词（关键词同样规范化）
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		kw = NormalizeLabel(kw)
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// hasLetter 是否包含字母（含中文等任意文字）
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isCodeLike 判断单元格是否像一个仓库代码/短文本：含字母、长度不超过 maxLen、不是结构性标签
func isCodeLike(s string, maxLen int, labels []string) bool {
	if s == "" || !hasLetter(s) {
		return false
	}
	if utf8.RuneCountInString(s) > maxLen {
		return false
	}
	return !ContainsAny(NormalizeLabel(s), labels)
}

// firstLine 返回第一行非空文本
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
