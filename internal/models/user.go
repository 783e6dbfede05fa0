package models

import (
	"time"
)

// User 用户表（由账号服务维护，本服务只读）
type User struct {
	ID                 uint       `gorm:"primarykey" json:"id"`              // 主键
	Email              string     `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	DisplayName        string     `gorm:"default:''" json:"display_name"`    // 昵称
	Status             string     `gorm:"default:'active'" json:"status"`    // 账号状态
	DOB                *time.Time `gorm:"column:dob" json:"dob"`             // 出生日期
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`       // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time `gorm:"index" json:"-"`                    // 该时间点前签发的 Token 失效
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`           // 注册时间
	UpdatedAt          time.Time  `json:"updated_at"`                        // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
