package handler

import (
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"

	"github.com/gin-gonic/gin"
)

// NewsHandler 负责处理新闻翻译请求。
type NewsHandler struct {
	newsService service.NewsService
}

// NewNewsHandler 创建一个新的 NewsHandler。
func NewNewsHandler(newsService service.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

// TranslateNewsRequest 是新闻翻译的请求体。
type TranslateNewsRequest struct {
	Items    []model.NewsItem `json:"items"`
	Language string           `json:"language"`
}

// Translate 翻译并格式化新闻条目。
func (h *NewsHandler) Translate(c *gin.Context) {
	var req TranslateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	news, err := h.newsService.Translate(c.Request.Context(), req.Items, req.Language)
	if err != nil {
		fail(c, "TranslateNews", err)
		return
	}
	success(c, news)
}
