package repository

import (
	"strings"

	"gorm.io/gorm"
)

// likeOperator 按方言选择大小写不敏感的模糊匹配操作符
// postgres 的 LIKE 区分大小写；sqlite 的 LIKE 对 ASCII 本身不区分
func likeOperator(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "LIKE"
	}
	switch strings.ToLower(db.Dialector.Name()) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// keywordScope 关键字匹配任一列；关键字或列为空时不追加条件
func keywordScope(keyword string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return db
		}
		operator := likeOperator(db)
		like := "%" + keyword + "%"
		parts := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, column := range columns {
			column = strings.TrimSpace(column)
			if column == "" {
				continue
			}
			parts = append(parts, column+" "+operator+" ?")
			args = append(args, like)
		}
		if len(parts) == 0 {
			return db
		}
		return db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}
