// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chemsafe-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCacheMiss 表示缓存中没有对应记录。
var ErrCacheMiss = errors.New("cache miss")

// DocumentCacheRepository 定义了生成文档缓存的读写接口。
// 三类可缓存文档分别存放在不同的表中，但访问方式完全一致。
type DocumentCacheRepository interface {
	// Find 按 (query, language) 查找，未命中时返回 ErrCacheMiss。
	Find(ctx context.Context, key model.CacheKey) (json.RawMessage, error)
	// Save 插入一条记录，同一个 key 已存在时静默忽略（先写者胜）。
	// inserted 表示本次调用是否真正写入了记录。
	Save(ctx context.Context, key model.CacheKey, payload json.RawMessage) (inserted bool, err error)
	// DeleteKind 清空某类文档的全部缓存，返回删除的行数。
	DeleteKind(ctx context.Context, kind model.DocumentKind) (int64, error)
}

type documentCacheRepository struct {
	db *gorm.DB
}

// NewDocumentCacheRepository 创建一个基于 GORM 的 DocumentCacheRepository。
func NewDocumentCacheRepository(db *gorm.DB) DocumentCacheRepository {
	return &documentCacheRepository{db: db}
}

// MigrateCacheTables 创建缓存表及 (search_query, language) 唯一索引。
func MigrateCacheTables(db *gorm.DB) error {
	return db.AutoMigrate(model.CacheTableModels()...)
}

func tableFor(kind model.DocumentKind) (string, error) {
	table := model.CacheTable(kind)
	if table == "" {
		return "", fmt.Errorf("document kind %q is not cacheable", kind)
	}
	return table, nil
}

func (r *documentCacheRepository) Find(ctx context.Context, key model.CacheKey) (json.RawMessage, error) {
	table, err := tableFor(key.Kind)
	if err != nil {
		return nil, err
	}
	var entry model.CacheEntry
	err = r.db.WithContext(ctx).Table(table).
		Where("search_query = ? AND language = ?", key.NormalizedQuery, key.Language).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return json.RawMessage(entry.Data), nil
}

func (r *documentCacheRepository) Save(ctx context.Context, key model.CacheKey, payload json.RawMessage) (bool, error) {
	table, err := tableFor(key.Kind)
	if err != nil {
		return false, err
	}
	entry := model.CacheEntry{
		SearchQuery: key.NormalizedQuery,
		Language:    key.Language,
		Data:        string(payload),
	}
	// 冲突时不写入，RowsAffected 为 0
	res := r.db.WithContext(ctx).Table(table).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert into %s: %w", table, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *documentCacheRepository) DeleteKind(ctx context.Context, kind model.DocumentKind) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Table(table).Where("1 = 1").Delete(&model.CacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, res.Error)
	}
	return res.RowsAffected, nil
}
