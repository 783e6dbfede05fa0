package admin

import (
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAuthzMe 获取当前管理员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "internal_error", "load admin roles failed", err)
		return
	}

	isSuper := false
	if value, exists := c.Get("admin_is_super"); exists {
		if flag, typeOK := value.(bool); typeOK {
			isSuper = flag
		}
	}

	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": isSuper,
		"roles":    roles,
	})
}
