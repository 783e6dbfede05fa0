package service

import (
	"strings"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountResult 折扣计算结果
type DiscountResult struct {
	DiscountAmount models.Money `json:"discount_amount"`
	FinalAmount    models.Money `json:"final_amount"`
}

// ComputeDiscount 计算优惠金额与应付金额，应付金额不低于 0
func ComputeDiscount(voucher *models.Voucher, orderAmount decimal.Decimal) (DiscountResult, error) {
	if orderAmount.IsNegative() {
		return DiscountResult{}, ErrInvalidOrderAmount
	}

	var discount decimal.Decimal
	switch strings.TrimSpace(voucher.DiscountType) {
	case constants.DiscountTypePercentage:
		discount = orderAmount.Mul(voucher.DiscountValue.Decimal).Div(hundred)
		if voucher.MaxDiscount.IsSet() && discount.GreaterThan(voucher.MaxDiscount.Decimal) {
			discount = voucher.MaxDiscount.Decimal
		}
	case constants.DiscountTypeFixed:
		discount = voucher.DiscountValue.Decimal
	default:
		return DiscountResult{}, ErrVoucherInvalid
	}

	discount = discount.Round(2)
	// 向下取整到分，保证应付金额不超过原始订单金额
	final := orderAmount.Sub(discount).RoundFloor(2)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return DiscountResult{
		DiscountAmount: models.Money{Decimal: discount},
		FinalAmount:    models.Money{Decimal: final},
	}, nil
}
