package admin

import (
	"strings"
	"time"

	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// VoucherRequest 创建/更新优惠券请求
type VoucherRequest struct {
	Code          string       `json:"code" binding:"required"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	DiscountType  string       `json:"discount_type" binding:"required"`
	DiscountValue models.Money `json:"discount_value"`
	MaxDiscount   models.Money `json:"max_discount"`
	MinOrderValue models.Money `json:"min_order_value"`
	UsageLimit    int          `json:"usage_limit"`
	Type          string       `json:"type"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	MaxAccountAge *int         `json:"max_account_age"`
	MinOrderCount *int         `json:"min_order_count"`
	MaxOrderCount *int         `json:"max_order_count"`
	Categories    []string     `json:"categories"`
	Tags          []string     `json:"tags"`
}

func (r VoucherRequest) toInput() (service.VoucherInput, error) {
	startDate, err := parseTimeNullable(r.StartDate)
	if err != nil {
		return service.VoucherInput{}, err
	}
	endDate, err := parseTimeNullable(r.EndDate)
	if err != nil {
		return service.VoucherInput{}, err
	}
	return service.VoucherInput{
		Code:          r.Code,
		Title:         r.Title,
		Description:   r.Description,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		MaxDiscount:   r.MaxDiscount,
		MinOrderValue: r.MinOrderValue,
		UsageLimit:    r.UsageLimit,
		Type:          r.Type,
		StartDate:     startDate,
		EndDate:       endDate,
		MaxAccountAge: r.MaxAccountAge,
		MinOrderCount: r.MinOrderCount,
		MaxOrderCount: r.MaxOrderCount,
		Categories:    r.Categories,
		Tags:          r.Tags,
	}, nil
}

func bindVoucherRequest(c *gin.Context) (service.VoucherInput, bool) {
	var req VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBadRequest(c, "invalid voucher payload")
		return service.VoucherInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		handlershared.RespondBadRequest(c, "start_date and end_date must be RFC3339")
		return service.VoucherInput{}, false
	}
	return input, true
}

// CreateVoucher 创建优惠券
func (h *Handler) CreateVoucher(c *gin.Context) {
	input, ok := bindVoucherRequest(c)
	if !ok {
		return
	}
	voucher, err := h.VoucherAdminService.Create(input)
	if err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_voucher_created", "voucher_id", voucher.ID, "code", voucher.Code)
	response.Success(c, voucher)
}

// UpdateVoucher 更新优惠券
func (h *Handler) UpdateVoucher(c *gin.Context) {
	voucherID, ok := handlershared.ParamID(c, "id")
	if !ok {
		return
	}
	input, ok := bindVoucherRequest(c)
	if !ok {
		return
	}
	voucher, err := h.VoucherAdminService.Update(voucherID, input)
	if err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	response.Success(c, voucher)
}

// DeleteVoucher 删除优惠券
func (h *Handler) DeleteVoucher(c *gin.Context) {
	voucherID, ok := handlershared.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.VoucherAdminService.Delete(voucherID); err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_voucher_deleted", "voucher_id", voucherID)
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminVoucher 获取单个优惠券
func (h *Handler) GetAdminVoucher(c *gin.Context) {
	voucherID, ok := handlershared.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.VoucherAdminService.Get(voucherID)
	if err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	response.Success(c, view)
}

// GetAdminVouchers 获取优惠券列表
func (h *Handler) GetAdminVouchers(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	views, total, err := h.VoucherAdminService.List(repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
		Type:     strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Keyword:  c.Query("keyword"),
	})
	if err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, views, response.NewPagination(page, pageSize, total))
}

// GetAdminVoucherUsages 获取优惠券核销流水
func (h *Handler) GetAdminVoucherUsages(c *gin.Context) {
	voucherID, ok := handlershared.ParamID(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	usages, total, err := h.VoucherAdminService.ListUsages(repository.VoucherUsageListFilter{
		Page:      page,
		PageSize:  pageSize,
		VoucherID: voucherID,
	})
	if err != nil {
		respondVoucherAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, usages, response.NewPagination(page, pageSize, total))
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
