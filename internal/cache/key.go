// Package cache 实现文档缓存的键规范化和容错的缓存存取。
package cache

import (
	"strings"

	"chemsafe-go/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize 去掉首尾空白并做与区域设置无关的小写转换。
// 对任意输入都成立：Normalize(Normalize(s)) == Normalize(s)。
func Normalize(query string) string {
	// Caser 有状态，不能跨 goroutine 共享
	return cases.Lower(language.Und).String(strings.TrimSpace(query))
}

// NewKey 由原始查询串、语言和文档类型构造缓存键。
func NewKey(kind model.DocumentKind, query, lang string) model.CacheKey {
	return model.CacheKey{
		NormalizedQuery: Normalize(query),
		Language:        strings.TrimSpace(lang),
		Kind:            kind,
	}
}
