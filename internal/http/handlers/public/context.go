package public

import (
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.RequireContextUint(c, handlershared.UserIDKey)
}

func respondVoucherError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, handlershared.VoucherEligibilityErrorRules)
}
