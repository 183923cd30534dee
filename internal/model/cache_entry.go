package model

import "time"

// CacheEntry 是三张缓存表共用的行结构，查询和写入时通过 Table() 指定表名。
// 记录创建后不会被修改，只能被管理操作整体删除。
type CacheEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SearchQuery string    `gorm:"type:varchar(255);not null" json:"searchQuery"`
	Language    string    `gorm:"type:varchar(32);not null" json:"language"`
	Data        string    `gorm:"type:json;not null" json:"data"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// SafetyCacheEntry 定义 chemical_safety_cache 表，仅用于建表迁移。
type SafetyCacheEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SearchQuery string    `gorm:"type:varchar(255);not null;uniqueIndex:uk_safety_query_lang"`
	Language    string    `gorm:"type:varchar(32);not null;uniqueIndex:uk_safety_query_lang"`
	Data        string    `gorm:"type:json;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (SafetyCacheEntry) TableName() string {
	return "chemical_safety_cache"
}

// TechnicalCacheEntry 定义 tds_cache 表。
type TechnicalCacheEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SearchQuery string    `gorm:"type:varchar(255);not null;uniqueIndex:uk_tds_query_lang"`
	Language    string    `gorm:"type:varchar(32);not null;uniqueIndex:uk_tds_query_lang"`
	Data        string    `gorm:"type:json;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (TechnicalCacheEntry) TableName() string {
	return "tds_cache"
}

// ProductCacheEntry 定义 raw_material_details 表。
type ProductCacheEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SearchQuery string    `gorm:"type:varchar(255);not null;uniqueIndex:uk_product_query_lang"`
	Language    string    `gorm:"type:varchar(32);not null;uniqueIndex:uk_product_query_lang"`
	Data        string    `gorm:"type:json;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (ProductCacheEntry) TableName() string {
	return "raw_material_details"
}

// CacheTable 返回某类文档对应的缓存表名，不可缓存的类型返回空串。
func CacheTable(kind DocumentKind) string {
	switch kind {
	case KindSafety:
		return SafetyCacheEntry{}.TableName()
	case KindTechnical:
		return TechnicalCacheEntry{}.TableName()
	case KindProduct:
		return ProductCacheEntry{}.TableName()
	}
	return ""
}

// CacheTableModels 用于 AutoMigrate。
func CacheTableModels() []interface{} {
	return []interface{}{&SafetyCacheEntry{}, &TechnicalCacheEntry{}, &ProductCacheEntry{}}
}
