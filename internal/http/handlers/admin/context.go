package admin

import (
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.RequireContextUint(c, handlershared.AdminIDKey)
}
