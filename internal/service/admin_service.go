package service

import (
	"context"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/repository"
	"chemsafe-go/pkg/log"
)

// AdminService 接口定义了管理员相关的业务操作。
type AdminService interface {
	// ClearCache 删除某类文档的全部缓存，返回删除的行数。
	ClearCache(ctx context.Context, kind model.DocumentKind) (int64, error)
}

type adminService struct {
	cacheRepo repository.DocumentCacheRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(cacheRepo repository.DocumentCacheRepository) AdminService {
	return &adminService{cacheRepo: cacheRepo}
}

func (s *adminService) ClearCache(ctx context.Context, kind model.DocumentKind) (int64, error) {
	if !kind.Cacheable() {
		return 0, apperror.Validation("document kind %q has no cache", kind)
	}
	n, err := s.cacheRepo.DeleteKind(ctx, kind)
	if err != nil {
		return 0, err
	}
	log.Infow("文档缓存已清空", "kind", kind, "rows", n)
	return n, nil
}
