package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/log"
)

// newsFallbackCount 是翻译失败时原样返回的条数。
const newsFallbackCount = 5

// NewsTranslator 翻译新闻条目。
type NewsTranslator interface {
	TranslateNews(ctx context.Context, items []model.NewsItem, language string) ([]model.TranslatedNews, error)
}

// NewsService 定义了新闻翻译的业务逻辑。
type NewsService interface {
	Translate(ctx context.Context, items []model.NewsItem, language string) ([]model.TranslatedNews, error)
}

type newsService struct {
	translator NewsTranslator
}

// NewNewsService 创建一个新的 NewsService 实例。
func NewNewsService(translator NewsTranslator) NewsService {
	return &newsService{translator: translator}
}

// Translate 翻译新闻；后端失败或响应无法解析时返回前几条未翻译的原文。
func (s *newsService) Translate(ctx context.Context, items []model.NewsItem, language string) ([]model.TranslatedNews, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("items are required")
	}
	if strings.TrimSpace(language) == "" {
		language = model.KindNews.DefaultLanguage()
	}
	out, err := s.translator.TranslateNews(ctx, items, language)
	if err == nil {
		return out, nil
	}
	switch apperror.KindOf(err) {
	case apperror.KindBackend, apperror.KindMalformedResponse:
		log.Warnw("新闻翻译失败，返回原文", "language", language, "error", err)
		return untranslated(items), nil
	}
	return nil, err
}

func untranslated(items []model.NewsItem) []model.TranslatedNews {
	if len(items) > newsFallbackCount {
		items = items[:newsFallbackCount]
	}
	today := time.Now().Format("2006-01-02")
	out := make([]model.TranslatedNews, 0, len(items))
	for i, item := range items {
		title := item.Title
		if title == "" {
			title = fmt.Sprintf("News %d", i+1)
		}
		desc := item.Summary()
		if desc == "" {
			desc = "No description"
		}
		out = append(out, model.TranslatedNews{
			ID:          i + 1,
			Title:       title,
			Description: desc,
			Date:        today,
			SourceLink:  item.Link,
		})
	}
	return out
}
