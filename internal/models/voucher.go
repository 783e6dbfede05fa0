package models

import (
	"time"
)

// Voucher 优惠券（硬删除，状态在读取时推导）
type Voucher struct {
	ID            uint        `gorm:"primarykey" json:"id"`                                          // 主键
	Code          string      `gorm:"uniqueIndex;not null;size:64" json:"code"`                      // 优惠码（大写存储）
	Title         string      `gorm:"not null;default:''" json:"title"`                              // 标题
	Description   string      `gorm:"type:text" json:"description"`                                  // 描述
	DiscountType  string      `gorm:"not null" json:"discount_type"`                                 // 优惠方式（percentage/fixed）
	DiscountValue Money       `gorm:"type:decimal(20,2);not null" json:"discount_value"`             // 优惠数值（百分比或固定金额）
	MaxDiscount   Money       `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"`     // 最大优惠金额（0 表示不限）
	MinOrderValue Money       `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`  // 订单门槛，order-value 类型复用为累计消费门槛
	UsageLimit    int         `gorm:"not null;default:1" json:"usage_limit"`                         // 1 为每人一次，大于 1 为共享库存
	UsedCount     int         `gorm:"not null;default:0" json:"used_count"`                          // 共享库存已用次数
	Type          string      `gorm:"not null;default:'default';index" json:"type"`                  // 规则类型
	StartDate     *time.Time  `gorm:"index" json:"start_date"`                                       // 生效时间
	EndDate       *time.Time  `gorm:"index" json:"end_date"`                                         // 失效时间
	MaxAccountAge *int        `json:"max_account_age,omitempty"`                                     // new-user：注册天数上限
	MinOrderCount *int        `json:"min_order_count,omitempty"`                                     // order-count：已付订单数下限
	MaxOrderCount *int        `json:"max_order_count,omitempty"`                                     // order-count：已付订单数上限
	Categories    StringArray `gorm:"type:text" json:"categories"`                                   // 适用分类（仅展示）
	Tags          StringArray `gorm:"type:text" json:"tags"`                                         // 标签（仅展示）
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt     time.Time   `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// IsSingleUse 是否为每人限用一次的券
func (v *Voucher) IsSingleUse() bool {
	return v.UsageLimit <= 1
}
