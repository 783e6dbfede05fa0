package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"

	"github.com/shopspring/decimal"
)

// VoucherAdminService 优惠券管理服务
type VoucherAdminService struct {
	repo      repository.VoucherRepository
	usageRepo repository.VoucherUsageRepository
	now       func() time.Time
}

// NewVoucherAdminService 创建优惠券管理服务
func NewVoucherAdminService(repo repository.VoucherRepository, usageRepo repository.VoucherUsageRepository) *VoucherAdminService {
	return &VoucherAdminService{repo: repo, usageRepo: usageRepo, now: time.Now}
}

// VoucherInput 创建/更新优惠券输入
type VoucherInput struct {
	Code          string
	Title         string
	Description   string
	DiscountType  string
	DiscountValue models.Money
	MaxDiscount   models.Money
	MinOrderValue models.Money
	UsageLimit    int
	Type          string
	StartDate     *time.Time
	EndDate       *time.Time
	MaxAccountAge *int
	MinOrderCount *int
	MaxOrderCount *int
	Categories    []string
	Tags          []string
}

// VoucherView 后台列表项，附带推导状态
type VoucherView struct {
	models.Voucher
	Status string `json:"status"`
}

// List 分页获取优惠券并推导状态
func (s *VoucherAdminService) List(filter repository.VoucherListFilter) ([]VoucherView, int64, error) {
	vouchers, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	views := make([]VoucherView, 0, len(vouchers))
	for i := range vouchers {
		views = append(views, VoucherView{
			Voucher: vouchers[i],
			Status:  DeriveVoucherStatus(&vouchers[i], now),
		})
	}
	return views, total, nil
}

// Get 获取单个优惠券
func (s *VoucherAdminService) Get(id uint) (*VoucherView, error) {
	voucher, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return &VoucherView{Voucher: *voucher, Status: DeriveVoucherStatus(voucher, s.now())}, nil
}

// Create 创建优惠券
func (s *VoucherAdminService) Create(input VoucherInput) (*models.Voucher, error) {
	voucher := &models.Voucher{}
	if err := applyVoucherInput(voucher, input); err != nil {
		return nil, err
	}

	exist, err := s.repo.GetByCode(voucher.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrVoucherCodeExists
	}

	if err := s.repo.Create(voucher); err != nil {
		if errors.Is(err, repository.ErrDuplicateVoucherCode) {
			return nil, ErrVoucherCodeExists
		}
		return nil, err
	}
	return voucher, nil
}

// Update 更新优惠券，used_count 保持不变
func (s *VoucherAdminService) Update(id uint, input VoucherInput) (*models.Voucher, error) {
	if id == 0 {
		return nil, ErrVoucherNotFound
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrVoucherNotFound
	}
	wasSingleUse := existing.IsSingleUse()
	if err := applyVoucherInput(existing, input); err != nil {
		return nil, err
	}
	if existing.UsageLimit < existing.UsedCount {
		return nil, ErrVoucherUsageLimitTooLow
	}
	// 核销键格式随单次/共享模式变化，已有流水后不允许切换
	if wasSingleUse != existing.IsSingleUse() {
		used, err := s.usageRepo.ExistsByVoucher(id)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrVoucherUsageModeLocked
		}
	}

	other, err := s.repo.GetByCode(existing.Code)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != existing.ID {
		return nil, ErrVoucherCodeExists
	}

	if err := s.repo.Update(existing); err != nil {
		if errors.Is(err, repository.ErrDuplicateVoucherCode) {
			return nil, ErrVoucherCodeExists
		}
		if errors.Is(err, repository.ErrUsageLimitConflict) {
			return nil, s.classifyUpdateConflict(id)
		}
		return nil, err
	}
	return existing, nil
}

// classifyUpdateConflict 条件写入未命中时区分记录已删除与额度不足
func (s *VoucherAdminService) classifyUpdateConflict(id uint) error {
	current, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrVoucherNotFound
	}
	return ErrVoucherUsageLimitTooLow
}

// Delete 硬删除优惠券，核销流水保留
func (s *VoucherAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrVoucherNotFound
	}
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrVoucherNotFound
	}
	return nil
}

// ListUsages 查询某张券的核销流水
func (s *VoucherAdminService) ListUsages(filter repository.VoucherUsageListFilter) ([]models.VoucherUsage, int64, error) {
	voucher, err := s.repo.GetByID(filter.VoucherID)
	if err != nil {
		return nil, 0, err
	}
	if voucher == nil {
		return nil, 0, ErrVoucherNotFound
	}
	return s.usageRepo.ListByVoucher(filter)
}

func invalidVoucher(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrVoucherInvalid, fmt.Sprintf(format, args...))
}

func applyVoucherInput(voucher *models.Voucher, input VoucherInput) error {
	code := repository.NormalizeVoucherCode(input.Code)
	if code == "" {
		return invalidVoucher("code is required")
	}
	if len(code) > 64 {
		return invalidVoucher("code is too long")
	}

	voucherType := strings.ToLower(strings.TrimSpace(input.Type))
	if voucherType == "" {
		voucherType = constants.VoucherTypeDefault
	}
	if _, err := resolveVoucherRule(voucherType, flashSaleWindow{}); err != nil {
		return ErrVoucherTypeInvalid
	}

	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	switch discountType {
	case constants.DiscountTypePercentage:
		if input.DiscountValue.Decimal.GreaterThan(hundred) {
			return invalidVoucher("percentage discount must not exceed 100")
		}
	case constants.DiscountTypeFixed:
	default:
		return invalidVoucher("unsupported discount type %q", input.DiscountType)
	}
	if input.DiscountValue.Decimal.LessThanOrEqual(decimal.Zero) {
		return invalidVoucher("discount value must be positive")
	}
	if input.MaxDiscount.IsNegative() || input.MinOrderValue.IsNegative() {
		return invalidVoucher("amounts must not be negative")
	}

	usageLimit := input.UsageLimit
	if usageLimit == 0 {
		usageLimit = 1
	}
	if usageLimit < 1 {
		return invalidVoucher("usage limit must be at least 1")
	}

	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return invalidVoucher("end date must not be before start date")
	}
	for _, bound := range []*int{input.MaxAccountAge, input.MinOrderCount, input.MaxOrderCount} {
		if bound != nil && *bound < 0 {
			return invalidVoucher("rule parameters must not be negative")
		}
	}
	if input.MinOrderCount != nil && input.MaxOrderCount != nil && *input.MinOrderCount > *input.MaxOrderCount {
		return invalidVoucher("min order count must not exceed max order count")
	}

	voucher.Code = code
	voucher.Title = strings.TrimSpace(input.Title)
	voucher.Description = strings.TrimSpace(input.Description)
	voucher.DiscountType = discountType
	voucher.DiscountValue = models.NewMoneyFromDecimal(input.DiscountValue.Decimal)
	voucher.MaxDiscount = models.NewMoneyFromDecimal(input.MaxDiscount.Decimal)
	voucher.MinOrderValue = models.NewMoneyFromDecimal(input.MinOrderValue.Decimal)
	voucher.UsageLimit = usageLimit
	voucher.Type = voucherType
	voucher.StartDate = utcPtr(input.StartDate)
	voucher.EndDate = utcPtr(input.EndDate)
	voucher.MaxAccountAge = input.MaxAccountAge
	voucher.MinOrderCount = input.MinOrderCount
	voucher.MaxOrderCount = input.MaxOrderCount
	voucher.Categories = normalizeLabels(input.Categories)
	voucher.Tags = normalizeLabels(input.Tags)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func normalizeLabels(values []string) models.StringArray {
	result := make(models.StringArray, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
