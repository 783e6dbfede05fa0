package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService 面向用户的优惠券服务（可用列表、预校验、核销）
type VoucherService struct {
	voucherRepo repository.VoucherRepository
	usageRepo   repository.VoucherUsageRepository
	profiles    *ShopperProfileLoader
	evaluator   *VoucherEvaluator
	now         func() time.Time
}

// NewVoucherService 创建优惠券服务
func NewVoucherService(
	voucherRepo repository.VoucherRepository,
	usageRepo repository.VoucherUsageRepository,
	profiles *ShopperProfileLoader,
	evaluator *VoucherEvaluator,
) *VoucherService {
	return &VoucherService{
		voucherRepo: voucherRepo,
		usageRepo:   usageRepo,
		profiles:    profiles,
		evaluator:   evaluator,
		now:         time.Now,
	}
}

// ValidateVoucherInput 预校验输入
type ValidateVoucherInput struct {
	UserID      uint
	Code        string
	OrderAmount decimal.Decimal
}

// VoucherQuote 预校验结果
type VoucherQuote struct {
	Voucher        *models.Voucher `json:"voucher"`
	DiscountAmount models.Money    `json:"discount_amount"`
	FinalAmount    models.Money    `json:"final_amount"`
}

// ApplyVoucherInput 核销输入
type ApplyVoucherInput struct {
	UserID      uint
	VoucherID   uint
	OrderID     uint
	OrderAmount decimal.Decimal
}

// VoucherRedemption 核销结果
type VoucherRedemption struct {
	Voucher        *models.Voucher      `json:"voucher"`
	Usage          *models.VoucherUsage `json:"usage"`
	DiscountAmount models.Money         `json:"discount_amount"`
	FinalAmount    models.Money         `json:"final_amount"`
}

// AvailableVoucher 用户可见的优惠券
type AvailableVoucher struct {
	models.Voucher
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
}

// ValidateVoucher 预校验优惠码并计算折扣，不产生任何写入
func (s *VoucherService) ValidateVoucher(input ValidateVoucherInput) (*VoucherQuote, error) {
	if input.OrderAmount.IsNegative() {
		return nil, ErrInvalidOrderAmount
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, ErrVoucherNotFound
	}
	voucher, err := s.voucherRepo.GetByCode(input.Code)
	if err != nil {
		return nil, fmt.Errorf("load voucher by code: %w", err)
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}

	shopper, err := s.shopperFor(voucher, input.UserID)
	if err != nil {
		return nil, err
	}
	amount := input.OrderAmount
	if err := s.evaluator.Evaluate(voucher, EligibilityContext{
		Now:         s.now(),
		Shopper:     shopper,
		OrderAmount: &amount,
	}); err != nil {
		return nil, err
	}

	if voucher.IsSingleUse() && input.UserID != 0 {
		used, err := s.usageRepo.ExistsByLedgerKey(models.LedgerKeyFor(voucher, input.UserID, 0))
		if err != nil {
			return nil, fmt.Errorf("check voucher ledger: %w", err)
		}
		if used {
			return nil, ErrVoucherAlreadyUsed
		}
	}

	result, err := ComputeDiscount(voucher, amount)
	if err != nil {
		return nil, err
	}
	return &VoucherQuote{
		Voucher:        voucher,
		DiscountAmount: result.DiscountAmount,
		FinalAmount:    result.FinalAmount,
	}, nil
}

// ApplyVoucher 核销优惠券：在同一事务内重新读取、重新判定、写入流水并受保护地自增
func (s *VoucherService) ApplyVoucher(input ApplyVoucherInput) (*VoucherRedemption, error) {
	if input.OrderAmount.IsNegative() {
		return nil, ErrInvalidOrderAmount
	}
	if input.UserID == 0 {
		return nil, ErrVoucherMissingUser
	}
	if input.VoucherID == 0 {
		return nil, ErrVoucherNotFound
	}

	// 画像在事务外加载，避免单连接数据库在事务内等待
	shopper, err := s.profiles.Load(input.UserID, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	amount := input.OrderAmount
	var redemption *VoucherRedemption
	err = s.voucherRepo.Transaction(func(tx *gorm.DB) error {
		voucherRepo := s.voucherRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		voucher, err := voucherRepo.GetByIDForUpdate(input.VoucherID)
		if err != nil {
			return fmt.Errorf("load voucher %d: %w", input.VoucherID, err)
		}
		if voucher == nil {
			return ErrVoucherNotFound
		}
		if err := s.evaluator.Evaluate(voucher, EligibilityContext{
			Now:         now,
			Shopper:     shopper,
			OrderAmount: &amount,
		}); err != nil {
			return err
		}

		result, err := ComputeDiscount(voucher, amount)
		if err != nil {
			return err
		}
		usage := &models.VoucherUsage{
			VoucherID:      voucher.ID,
			UserID:         input.UserID,
			OrderID:        input.OrderID,
			LedgerKey:      models.LedgerKeyFor(voucher, input.UserID, input.OrderID),
			OrderAmount:    models.NewMoneyFromDecimal(amount),
			DiscountAmount: result.DiscountAmount,
			CreatedAt:      now.UTC(),
		}
		if err := usageRepo.Create(usage); err != nil {
			if errors.Is(err, repository.ErrDuplicateLedgerKey) {
				return ErrVoucherAlreadyUsed
			}
			return fmt.Errorf("create voucher usage: %w", err)
		}

		if !voucher.IsSingleUse() {
			ok, err := voucherRepo.IncrementUsedCountGuarded(voucher.ID)
			if err != nil {
				return fmt.Errorf("increment voucher used count: %w", err)
			}
			if !ok {
				return ErrVoucherExhausted
			}
			voucher.UsedCount++
		}

		redemption = &VoucherRedemption{
			Voucher:        voucher,
			Usage:          usage,
			DiscountAmount: result.DiscountAmount,
			FinalAmount:    result.FinalAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("voucher_redeemed",
		"voucher_id", redemption.Voucher.ID,
		"user_id", input.UserID,
		"order_id", input.OrderID,
		"discount_amount", redemption.DiscountAmount.String(),
		"used_count", redemption.Voucher.UsedCount,
	)
	return redemption, nil
}

// ListAvailable 返回当前用户可见的优惠券，userID 为 0 表示匿名
func (s *VoucherService) ListAvailable(userID uint) ([]AvailableVoucher, error) {
	vouchers, err := s.voucherRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}

	var shopper *ShopperProfile
	used := map[uint]struct{}{}
	if userID != 0 {
		shopper, err = s.profiles.Load(userID, false)
		if errors.Is(err, ErrShopperNotFound) {
			shopper = nil
		} else if err != nil {
			return nil, err
		}
	}
	if shopper != nil {
		ids, err := s.usageRepo.ListVoucherIDsByUser(userID)
		if err != nil {
			return nil, fmt.Errorf("list user voucher usages: %w", err)
		}
		for _, id := range ids {
			used[id] = struct{}{}
		}
	}

	now := s.now()
	items := make([]AvailableVoucher, 0, len(vouchers))
	for i := range vouchers {
		voucher := &vouchers[i]
		if s.evaluator.CheckAvailability(voucher, now) != nil {
			continue
		}
		if shopper != nil && voucher.IsSingleUse() {
			if _, ok := used[voucher.ID]; ok {
				continue
			}
		}
		if voucher.Type != constants.VoucherTypeDefault {
			if shopper == nil {
				continue
			}
			if s.evaluator.NeedsOrderHistory(voucher) {
				if err := s.profiles.EnsureOrders(shopper); err != nil {
					return nil, err
				}
			}
			if err := s.evaluator.CheckRule(voucher, now, shopper); err != nil {
				if errors.Is(err, ErrVoucherTypeInvalid) {
					logger.Warnw("voucher_unknown_type_skipped", "voucher_id", voucher.ID, "type", voucher.Type)
				}
				continue
			}
		}
		items = append(items, AvailableVoucher{
			Voucher:       *voucher,
			Status:        constants.VoucherStatusAvailable,
			StatusMessage: availableStatusMessage(voucher, s.evaluator.ReferenceZone()),
		})
	}
	return items, nil
}

// ListUserUsages 查询用户自己的核销记录
func (s *VoucherService) ListUserUsages(filter repository.VoucherUsageListFilter) ([]models.VoucherUsage, int64, error) {
	return s.usageRepo.ListByUser(filter)
}

func (s *VoucherService) shopperFor(voucher *models.Voucher, userID uint) (*ShopperProfile, error) {
	if userID == 0 || !s.evaluator.NeedsShopper(voucher) {
		return nil, nil
	}
	return s.profiles.Load(userID, s.evaluator.NeedsOrderHistory(voucher))
}

var availableMessages = map[string]string{
	constants.VoucherTypeDefault:    "Available for every order",
	constants.VoucherTypeNewUser:    "Welcome offer for new members",
	constants.VoucherTypeBirthday:   "Happy birthday! Enjoy your gift",
	constants.VoucherTypeFirstOrder: "Special offer for your first order",
	constants.VoucherTypeOrderCount: "Thanks for being a returning learner",
	constants.VoucherTypeOrderValue: "Reward for your purchases so far",
	constants.VoucherTypeFlashSale:  "Flash sale, available for a limited time today",
}

func availableStatusMessage(voucher *models.Voucher, zone *time.Location) string {
	message, ok := availableMessages[voucher.Type]
	if !ok {
		message = "Available"
	}
	if voucher.EndDate != nil {
		message = fmt.Sprintf("%s (valid until %s)", message, voucher.EndDate.In(zone).Format("2006-01-02 15:04"))
	}
	return message
}
