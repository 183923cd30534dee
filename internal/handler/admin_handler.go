package handler

import (
	"chemsafe-go/internal/middleware"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ClearCache 清空某类文档的缓存。
func (h *AdminHandler) ClearCache(c *gin.Context) {
	kind, err := model.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	deleted, err := h.adminService.ClearCache(c.Request.Context(), kind)
	if err != nil {
		fail(c, "ClearCache", err)
		return
	}

	if claims, ok := middleware.ClaimsFrom(c); ok {
		log.Infof("管理员 '%s' 清空了 %s 缓存，共 %d 条", claims.UserID, kind, deleted)
	}
	success(c, gin.H{"kind": kind, "deleted": deleted})
}
