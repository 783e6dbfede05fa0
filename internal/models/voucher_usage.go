package models

import (
	"fmt"
	"time"
)

// VoucherUsage 优惠券核销流水（只追加）
type VoucherUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	VoucherID      uint      `gorm:"index;not null" json:"voucher_id"`                             // 优惠券ID
	UserID         uint      `gorm:"index;not null" json:"user_id"`                                // 用户ID
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	LedgerKey      string    `gorm:"uniqueIndex;not null;size:96" json:"-"`                        // 唯一核销键
	OrderAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`    // 订单金额
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 核销时间
}

// TableName 指定表名
func (VoucherUsage) TableName() string {
	return "voucher_usages"
}

// LedgerKeyFor 计算核销唯一键：单次券按 (用户, 券)，共享券按 (用户, 券, 订单)
func LedgerKeyFor(voucher *Voucher, userID, orderID uint) string {
	if voucher.IsSingleUse() {
		return fmt.Sprintf("u:%d:v:%d", userID, voucher.ID)
	}
	return fmt.Sprintf("u:%d:v:%d:o:%d", userID, voucher.ID, orderID)
}
