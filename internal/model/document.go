// Package model 包含了应用的数据模型定义。
package model

import "fmt"

// DocumentKind 标识一类由模型生成的结构化文档。
type DocumentKind string

const (
	KindSafety       DocumentKind = "safety"        // 安全数据表 (SDS)
	KindTechnical    DocumentKind = "technical"     // 技术数据表 (TDS)
	KindProduct      DocumentKind = "product"       // 原料/产品详情
	KindOCR          DocumentKind = "ocr"           // OCR 文本识别化学品
	KindFileAnalysis DocumentKind = "file_analysis" // 上传的图片/PDF 分析
	KindNews         DocumentKind = "news"          // 新闻翻译
)

// CacheableKinds 列出走缓存旁路流程的文档类型。
var CacheableKinds = []DocumentKind{KindSafety, KindTechnical, KindProduct}

// Cacheable 报告该类型的文档是否持久化到缓存表。
func (k DocumentKind) Cacheable() bool {
	switch k {
	case KindSafety, KindTechnical, KindProduct:
		return true
	}
	return false
}

// DefaultLanguage 返回请求未指定语言时使用的语言。
func (k DocumentKind) DefaultLanguage() string {
	if k == KindProduct {
		return "English"
	}
	return "Turkish"
}

// ParseDocumentKind 解析路由或命令行中的类型名。
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch k := DocumentKind(s); k {
	case KindSafety, KindTechnical, KindProduct, KindOCR, KindFileAnalysis, KindNews:
		return k, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// CacheKey 唯一确定一条缓存记录。NormalizedQuery 必须已经过规范化。
type CacheKey struct {
	NormalizedQuery string
	Language        string
	Kind            DocumentKind
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Language, k.NormalizedQuery)
}
