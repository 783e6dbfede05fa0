package models

import (
	"time"
)

// Order 订单表（由结算服务维护，本服务只读）
type Order struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                      // 主键
	UserID      uint       `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Status      string     `gorm:"index;not null" json:"status"`                              // 订单状态
	TotalAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	PaidAt      *time.Time `gorm:"index" json:"paid_at"`                                      // 支付时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
