package models

import (
	"time"
)

// Admin 管理员表（账号由后台账号服务签发，本服务用于 Token 校验与 RBAC）
type Admin struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                         // 主键
	Username           string     `gorm:"uniqueIndex;not null" json:"username"`         // 管理员账号
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`                  // Token 版本
	TokenInvalidBefore *time.Time `gorm:"index" json:"-"`                               // 该时间点前签发的 Token 失效
	IsSuper            bool       `gorm:"not null;default:false;index" json:"is_super"` // 是否超级管理员（免权限校验）
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                      // 创建时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
