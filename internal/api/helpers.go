package api

import (
	"strings"

	"gorm.io/gorm"
)

// orderedList 是后台列表的默认排序：order_index 升序，再按创建时间。
func orderedList(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC").Order("created_at ASC")
}

// normalizeDate turns "" into nil so optional date columns stay NULL.
func normalizeDate(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// firstNonEmpty 返回第一个非空字符串，用于表单默认值。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
