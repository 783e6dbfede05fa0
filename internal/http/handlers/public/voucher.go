package public

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateVoucherRequest 预校验请求
type ValidateVoucherRequest struct {
	Code        string        `json:"code" binding:"required"`
	OrderAmount *models.Money `json:"order_amount" binding:"required"`
}

// ApplyVoucherRequest 核销请求
type ApplyVoucherRequest struct {
	VoucherID   uint          `json:"voucher_id" binding:"required"`
	OrderID     uint          `json:"order_id" binding:"required"`
	OrderAmount *models.Money `json:"order_amount" binding:"required"`
}

// ListAvailableVouchers 当前用户（或匿名）可见的优惠券
func (h *Handler) ListAvailableVouchers(c *gin.Context) {
	userID := handlershared.OptionalUserID(c)
	items, err := h.VoucherService.ListAvailable(userID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, items)
}

// ValidateVoucher 预校验优惠码
func (h *Handler) ValidateVoucher(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ValidateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBadRequest(c, "code and order_amount are required")
		return
	}

	quote, err := h.VoucherService.ValidateVoucher(service.ValidateVoucherInput{
		UserID:      userID,
		Code:        req.Code,
		OrderAmount: req.OrderAmount.Decimal,
	})
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.Success(c, quote)
}

// ApplyVoucher 核销优惠券
func (h *Handler) ApplyVoucher(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBadRequest(c, "voucher_id, order_id and order_amount are required")
		return
	}

	redemption, err := h.VoucherService.ApplyVoucher(service.ApplyVoucherInput{
		UserID:      userID,
		VoucherID:   req.VoucherID,
		OrderID:     req.OrderID,
		OrderAmount: req.OrderAmount.Decimal,
	})
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("voucher_apply_success",
		"voucher_id", req.VoucherID,
		"order_id", req.OrderID,
		"user_id", userID,
	)
	response.Success(c, redemption)
}

// ListMyVoucherUsages 当前用户的核销记录
func (h *Handler) ListMyVoucherUsages(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	usages, total, err := h.VoucherService.ListUserUsages(repository.VoucherUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
	if err != nil {
		respondVoucherError(c, err)
		return
	}
	response.SuccessWithPage(c, usages, response.NewPagination(page, pageSize, total))
}
