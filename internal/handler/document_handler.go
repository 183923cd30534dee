package handler

import (
	"io"
	"net/http"

	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/llm"
	"chemsafe-go/pkg/log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// 文件分析接口接受的类型
var allowedUploadTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

// DocumentHandler 负责处理文档生成相关的请求。
type DocumentHandler struct {
	documentService service.DocumentService
	maxUploadBytes  int64
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &DocumentHandler{documentService: documentService, maxUploadBytes: maxUploadBytes}
}

// ResolveDocumentRequest 是文档接口的请求体。
type ResolveDocumentRequest struct {
	ProductName string `json:"productName"`
	Language    string `json:"language"`
	UserID      string `json:"userId"`
}

// Resolve 返回处理某类文档的 gin.HandlerFunc。
func (h *DocumentHandler) Resolve(kind model.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "无效的请求负载")
			return
		}

		result, err := h.documentService.Resolve(c.Request.Context(), service.ResolveRequest{
			Kind:     kind,
			Subject:  req.ProductName,
			Language: req.Language,
			UserID:   req.UserID,
		})
		if err != nil {
			fail(c, "Resolve "+string(kind), err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result.Data, "cached": result.Cached})
	}
}

// IdentifyChemicalRequest 是 OCR 识别接口的请求体。
type IdentifyChemicalRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// IdentifyChemical 从 OCR 文本中识别化学品。
func (h *DocumentHandler) IdentifyChemical(c *gin.Context) {
	var req IdentifyChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	data, err := h.documentService.IdentifyChemical(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		fail(c, "IdentifyChemical", err)
		return
	}
	success(c, data)
}

// AnalyzeSDS 分析上传的图片或 PDF。
func (h *DocumentHandler) AnalyzeSDS(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "文件不能为空")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		badRequest(c, "文件过大")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Error("AnalyzeSDS: 打开上传文件失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取文件失败", "data": nil})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		log.Error("AnalyzeSDS: 读取上传文件失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取文件失败", "data": nil})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		badRequest(c, "文件过大")
		return
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedUploadTypes...) {
		log.Warnf("AnalyzeSDS: 不支持的文件类型 %s (%s)", mtype.String(), fileHeader.Filename)
		badRequest(c, "不支持的文件类型: "+mtype.String())
		return
	}

	result, err := h.documentService.AnalyzeFile(c.Request.Context(), llm.Attachment{MIMEType: mtype.String(), Data: data}, c.PostForm("language"))
	if err != nil {
		fail(c, "AnalyzeSDS", err)
		return
	}
	success(c, result)
}
