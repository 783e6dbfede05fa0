package service

import (
	"strings"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
)

// voucherRule 单一券类型的资格规则
type voucherRule interface {
	// Type 规则对应的券类型
	Type() string
	// TimeBasis 规则使用的时间基准（utc / reference-zone）
	TimeBasis() string
	// RequiresShopper 是否需要用户上下文
	RequiresShopper() bool
	// RequiresOrderHistory 是否需要用户已付订单汇总
	RequiresOrderHistory() bool
	// Check now 已按 TimeBasis 换算；shopper 在 RequiresShopper 为 true 时非空
	Check(voucher *models.Voucher, now time.Time, shopper *ShopperProfile) error
}

// resolveVoucherRule 根据券类型解析规则，未知类型返回 ErrVoucherTypeInvalid
func resolveVoucherRule(voucherType string, window flashSaleWindow) (voucherRule, error) {
	switch strings.TrimSpace(voucherType) {
	case constants.VoucherTypeDefault:
		return defaultRule{}, nil
	case constants.VoucherTypeNewUser:
		return newUserRule{}, nil
	case constants.VoucherTypeBirthday:
		return birthdayRule{}, nil
	case constants.VoucherTypeFirstOrder:
		return firstOrderRule{}, nil
	case constants.VoucherTypeOrderCount:
		return orderCountRule{}, nil
	case constants.VoucherTypeOrderValue:
		return orderValueRule{}, nil
	case constants.VoucherTypeFlashSale:
		return flashSaleRule{window: window}, nil
	default:
		return nil, ErrVoucherTypeInvalid
	}
}

// flashSaleWindow 每日限时窗口 [StartMinute, EndMinute)，按当日分钟数计
type flashSaleWindow struct {
	StartMinute int
	EndMinute   int
}

func (w flashSaleWindow) contains(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	return minute >= w.StartMinute && minute < w.EndMinute
}

type defaultRule struct{}

func (defaultRule) Type() string               { return constants.VoucherTypeDefault }
func (defaultRule) TimeBasis() string          { return constants.TimeBasisUTC }
func (defaultRule) RequiresShopper() bool      { return false }
func (defaultRule) RequiresOrderHistory() bool { return false }
func (defaultRule) Check(*models.Voucher, time.Time, *ShopperProfile) error {
	return nil
}

type newUserRule struct{}

func (newUserRule) Type() string               { return constants.VoucherTypeNewUser }
func (newUserRule) TimeBasis() string          { return constants.TimeBasisUTC }
func (newUserRule) RequiresShopper() bool      { return true }
func (newUserRule) RequiresOrderHistory() bool { return false }
func (newUserRule) Check(voucher *models.Voucher, now time.Time, shopper *ShopperProfile) error {
	if shopper.CreatedAt == nil || shopper.CreatedAt.IsZero() {
		return ErrAccountTooOld
	}
	if voucher.MaxAccountAge == nil {
		return nil
	}
	if accountAgeDays(shopper.CreatedAt.UTC(), now) > *voucher.MaxAccountAge {
		return ErrAccountTooOld
	}
	return nil
}

// accountAgeDays 注册至今的完整天数
func accountAgeDays(createdAt, now time.Time) int {
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

type birthdayRule struct{}

func (birthdayRule) Type() string               { return constants.VoucherTypeBirthday }
func (birthdayRule) TimeBasis() string          { return constants.TimeBasisReferenceZone }
func (birthdayRule) RequiresShopper() bool      { return true }
func (birthdayRule) RequiresOrderHistory() bool { return false }
func (birthdayRule) Check(_ *models.Voucher, now time.Time, shopper *ShopperProfile) error {
	if shopper.DOB == nil || shopper.DOB.IsZero() {
		return ErrNotBirthday
	}
	dob := shopper.DOB.In(now.Location())
	if dob.Month() != now.Month() || dob.Day() != now.Day() {
		return ErrNotBirthday
	}
	return nil
}

type firstOrderRule struct{}

func (firstOrderRule) Type() string               { return constants.VoucherTypeFirstOrder }
func (firstOrderRule) TimeBasis() string          { return constants.TimeBasisUTC }
func (firstOrderRule) RequiresShopper() bool      { return true }
func (firstOrderRule) RequiresOrderHistory() bool { return true }
func (firstOrderRule) Check(_ *models.Voucher, _ time.Time, shopper *ShopperProfile) error {
	if shopper.PaidOrderCount != 0 {
		return ErrNotFirstOrder
	}
	return nil
}

type orderCountRule struct{}

func (orderCountRule) Type() string               { return constants.VoucherTypeOrderCount }
func (orderCountRule) TimeBasis() string          { return constants.TimeBasisUTC }
func (orderCountRule) RequiresShopper() bool      { return true }
func (orderCountRule) RequiresOrderHistory() bool { return true }
func (orderCountRule) Check(voucher *models.Voucher, _ time.Time, shopper *ShopperProfile) error {
	n := shopper.PaidOrderCount
	if voucher.MinOrderCount != nil && n < *voucher.MinOrderCount {
		return ErrOrderCountOutOfRange
	}
	if voucher.MaxOrderCount != nil && n > *voucher.MaxOrderCount {
		return ErrOrderCountOutOfRange
	}
	return nil
}

type orderValueRule struct{}

func (orderValueRule) Type() string               { return constants.VoucherTypeOrderValue }
func (orderValueRule) TimeBasis() string          { return constants.TimeBasisUTC }
func (orderValueRule) RequiresShopper() bool      { return true }
func (orderValueRule) RequiresOrderHistory() bool { return true }
func (orderValueRule) Check(voucher *models.Voucher, _ time.Time, shopper *ShopperProfile) error {
	if !voucher.MinOrderValue.IsSet() {
		return nil
	}
	if shopper.PaidOrderTotal.LessThan(voucher.MinOrderValue.Decimal) {
		return ErrOrderValueTooLow
	}
	return nil
}

type flashSaleRule struct {
	window flashSaleWindow
}

func (flashSaleRule) Type() string               { return constants.VoucherTypeFlashSale }
func (flashSaleRule) TimeBasis() string          { return constants.TimeBasisReferenceZone }
func (flashSaleRule) RequiresShopper() bool      { return false }
func (flashSaleRule) RequiresOrderHistory() bool { return false }
func (r flashSaleRule) Check(_ *models.Voucher, now time.Time, _ *ShopperProfile) error {
	if !r.window.contains(now) {
		return ErrOutsideFlashSaleWindow
	}
	return nil
}
