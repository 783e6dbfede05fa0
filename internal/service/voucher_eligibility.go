package service

import (
	"fmt"
	"time"
	_ "time/tzdata" // 保证精简镜像中也能加载参考时区

	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"github.com/shopspring/decimal"
)

// EligibilityContext 资格判定上下文
type EligibilityContext struct {
	Now         time.Time
	Shopper     *ShopperProfile  // 可选，匿名访问为 nil
	OrderAmount *decimal.Decimal // 可选，仅 validate/apply 时提供
}

// VoucherEvaluator 优惠券资格判定器（纯函数，无副作用）
type VoucherEvaluator struct {
	referenceZone *time.Location
	flashSale     flashSaleWindow
}

// NewVoucherEvaluator 根据配置创建判定器
func NewVoucherEvaluator(cfg config.VoucherConfig) (*VoucherEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zone, err := time.LoadLocation(cfg.ReferenceTimezone)
	if err != nil {
		return nil, fmt.Errorf("load reference timezone %q: %w", cfg.ReferenceTimezone, err)
	}
	return &VoucherEvaluator{
		referenceZone: zone,
		flashSale: flashSaleWindow{
			StartMinute: cfg.FlashSaleStartMinute,
			EndMinute:   cfg.FlashSaleEndMinute,
		},
	}, nil
}

// ReferenceZone 返回参考时区
func (e *VoucherEvaluator) ReferenceZone() *time.Location {
	return e.referenceZone
}

// Evaluate 按固定顺序校验，返回首个失败原因；全部通过返回 nil
//  1. 时间窗口  2. 共享库存  3. 类型规则  4. 订单金额门槛
func (e *VoucherEvaluator) Evaluate(voucher *models.Voucher, ctx EligibilityContext) error {
	if err := e.CheckAvailability(voucher, ctx.Now); err != nil {
		return err
	}
	if err := e.CheckRule(voucher, ctx.Now, ctx.Shopper); err != nil {
		return err
	}
	if ctx.OrderAmount != nil && voucher.MinOrderValue.IsSet() && ctx.OrderAmount.LessThan(voucher.MinOrderValue.Decimal) {
		return ErrVoucherBelowMinimum
	}
	return nil
}

// CheckAvailability 时间窗口与共享库存校验（检查 1-2，按 UTC 瞬时比较）
func (e *VoucherEvaluator) CheckAvailability(voucher *models.Voucher, now time.Time) error {
	now = now.UTC()
	if voucher.StartDate != nil && now.Before(voucher.StartDate.UTC()) {
		return ErrVoucherNotYetStarted
	}
	if voucher.EndDate != nil && now.After(voucher.EndDate.UTC()) {
		return ErrVoucherExpired
	}
	if voucher.UsedCount >= voucher.UsageLimit {
		return ErrVoucherExhausted
	}
	return nil
}

// CheckRule 类型规则校验（检查 3）
func (e *VoucherEvaluator) CheckRule(voucher *models.Voucher, now time.Time, shopper *ShopperProfile) error {
	rule, err := e.ruleFor(voucher)
	if err != nil {
		return err
	}
	if rule.RequiresShopper() && shopper == nil {
		return ErrVoucherMissingUser
	}
	return rule.Check(voucher, e.inBasis(rule.TimeBasis(), now), shopper)
}

// NeedsShopper 判断该券的规则是否需要用户上下文
func (e *VoucherEvaluator) NeedsShopper(voucher *models.Voucher) bool {
	rule, err := e.ruleFor(voucher)
	if err != nil {
		return false
	}
	return rule.RequiresShopper()
}

// NeedsOrderHistory 判断该券的规则是否需要加载用户已付订单
func (e *VoucherEvaluator) NeedsOrderHistory(voucher *models.Voucher) bool {
	rule, err := e.ruleFor(voucher)
	if err != nil {
		return false
	}
	return rule.RequiresOrderHistory()
}

func (e *VoucherEvaluator) ruleFor(voucher *models.Voucher) (voucherRule, error) {
	return resolveVoucherRule(voucher.Type, e.flashSale)
}

func (e *VoucherEvaluator) inBasis(basis string, now time.Time) time.Time {
	if basis == constants.TimeBasisReferenceZone {
		return now.In(e.referenceZone)
	}
	return now.UTC()
}

// DeriveVoucherStatus 推导后台展示状态：未开始 > 已过期 > 已用完 > 生效中
func DeriveVoucherStatus(voucher *models.Voucher, now time.Time) string {
	now = now.UTC()
	switch {
	case voucher.StartDate != nil && now.Before(voucher.StartDate.UTC()):
		return constants.VoucherStatusNotStarted
	case voucher.EndDate != nil && now.After(voucher.EndDate.UTC()):
		return constants.VoucherStatusExpired
	case voucher.UsedCount >= voucher.UsageLimit:
		return constants.VoucherStatusExhausted
	default:
		return constants.VoucherStatusActive
	}
}
