package service

import (
	"errors"
	"fmt"
)

// 优惠券业务错误
var (
	ErrVoucherNotFound         = errors.New("voucher not found")
	ErrVoucherNotYetStarted    = errors.New("voucher not yet started")
	ErrVoucherExpired          = errors.New("voucher expired")
	ErrVoucherExhausted        = errors.New("voucher exhausted")
	ErrVoucherAlreadyUsed      = errors.New("voucher already used")
	ErrVoucherBelowMinimum     = errors.New("order amount below voucher minimum")
	ErrVoucherMissingUser      = errors.New("voucher requires an authenticated user")
	ErrVoucherTypeInvalid      = errors.New("invalid voucher type")
	ErrVoucherConditionNotMet  = errors.New("voucher condition not met")
	ErrVoucherInvalid          = errors.New("invalid voucher")
	ErrVoucherCodeExists       = errors.New("voucher code already exists")
	ErrInvalidOrderAmount      = errors.New("invalid order amount")
	ErrShopperNotFound         = errors.New("shopper not found")
	ErrVoucherUsageLimitTooLow = errors.New("usage limit below used count")
	ErrVoucherUsageModeLocked  = errors.New("usage mode cannot change after redemption")
)

// 规则未满足的细分原因，均可用 errors.Is 匹配 ErrVoucherConditionNotMet
var (
	ErrAccountTooOld          = conditionError("account too old")
	ErrNotBirthday            = conditionError("not birthday")
	ErrNotFirstOrder          = conditionError("not first order")
	ErrOrderCountOutOfRange   = conditionError("paid order count out of range")
	ErrOrderValueTooLow       = conditionError("paid order value too low")
	ErrOutsideFlashSaleWindow = conditionError("outside flash sale window")
)

func conditionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrVoucherConditionNotMet, reason)
}
