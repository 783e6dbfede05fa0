package admin

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

var voucherAdminErrorRules = []handlershared.MappedHandlerError{
	{Target: service.ErrVoucherNotFound, Code: response.CodeNotFound, Reason: "voucher_not_found"},
	{Target: service.ErrVoucherCodeExists, Code: response.CodeConflict, Reason: "voucher_code_exists"},
	{Target: service.ErrVoucherUsageLimitTooLow, Code: response.CodeConflict, Reason: "usage_limit_below_used_count"},
	{Target: service.ErrVoucherUsageModeLocked, Code: response.CodeConflict, Reason: "usage_mode_locked"},
	{Target: service.ErrVoucherTypeInvalid, Code: response.CodeBadRequest, Reason: "invalid_voucher_type"},
	{Target: service.ErrVoucherInvalid, Code: response.CodeBadRequest, Reason: "voucher_invalid", Detail: true},
}

func respondVoucherAdminError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, voucherAdminErrorRules)
}
