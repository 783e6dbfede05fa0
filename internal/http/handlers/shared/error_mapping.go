package shared

import (
	"errors"

	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Reason string
	// Detail 为 true 时把原始错误文本回传给调用方
	Detail bool
}

// RespondWithMappedError 按规则顺序匹配，未命中时返回 500 internal_error 并记录日志。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError) {
	for _, rule := range rules {
		if !errors.Is(err, rule.Target) {
			continue
		}
		msg := rule.Target.Error()
		if rule.Detail {
			msg = err.Error()
		}
		RespondError(c, rule.Code, rule.Reason, msg, nil)
		return
	}
	RespondError(c, response.CodeInternal, "internal_error", "internal server error", err)
}

// ConcatMappedHandlerErrors 合并多组映射规则
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// VoucherConditionErrorRules 细分原因必须排在 ErrVoucherConditionNotMet 之前
var VoucherConditionErrorRules = []MappedHandlerError{
	{Target: service.ErrAccountTooOld, Code: response.CodeUnprocessableEntity, Reason: "account_too_old"},
	{Target: service.ErrNotBirthday, Code: response.CodeUnprocessableEntity, Reason: "not_birthday"},
	{Target: service.ErrNotFirstOrder, Code: response.CodeUnprocessableEntity, Reason: "not_first_order"},
	{Target: service.ErrOrderCountOutOfRange, Code: response.CodeUnprocessableEntity, Reason: "order_count_out_of_range"},
	{Target: service.ErrOrderValueTooLow, Code: response.CodeUnprocessableEntity, Reason: "order_value_too_low"},
	{Target: service.ErrOutsideFlashSaleWindow, Code: response.CodeUnprocessableEntity, Reason: "outside_flash_sale_window"},
	{Target: service.ErrVoucherConditionNotMet, Code: response.CodeUnprocessableEntity, Reason: "condition_not_met"},
}

// VoucherEligibilityErrorRules 资格判定与核销的统一映射
var VoucherEligibilityErrorRules = ConcatMappedHandlerErrors([]MappedHandlerError{
	{Target: service.ErrVoucherNotFound, Code: response.CodeNotFound, Reason: "voucher_not_found"},
	{Target: service.ErrVoucherNotYetStarted, Code: response.CodeUnprocessableEntity, Reason: "not_yet_started"},
	{Target: service.ErrVoucherExpired, Code: response.CodeUnprocessableEntity, Reason: "expired"},
	{Target: service.ErrVoucherExhausted, Code: response.CodeConflict, Reason: "exhausted"},
	{Target: service.ErrVoucherAlreadyUsed, Code: response.CodeConflict, Reason: "already_used"},
	{Target: service.ErrVoucherBelowMinimum, Code: response.CodeUnprocessableEntity, Reason: "below_minimum_order"},
	{Target: service.ErrVoucherMissingUser, Code: response.CodeUnauthorized, Reason: "missing_user_context"},
	{Target: service.ErrVoucherTypeInvalid, Code: response.CodeUnprocessableEntity, Reason: "invalid_voucher_type"},
	{Target: service.ErrInvalidOrderAmount, Code: response.CodeBadRequest, Reason: "invalid_order_amount"},
	{Target: service.ErrShopperNotFound, Code: response.CodeNotFound, Reason: "shopper_not_found"},
}, VoucherConditionErrorRules)
