package service

import (
	"fmt"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"

	"github.com/shopspring/decimal"
)

// ShopperProfile 资格判定所需的用户画像快照
type ShopperProfile struct {
	UserID         uint
	CreatedAt      *time.Time
	DOB            *time.Time
	PaidOrderCount int
	PaidOrderTotal decimal.Decimal
	ordersLoaded   bool
}

// ShopperProfileLoader 从用户与订单数据源组装画像
type ShopperProfileLoader struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
}

// NewShopperProfileLoader 创建画像加载器
func NewShopperProfileLoader(userRepo repository.UserRepository, orderRepo repository.OrderRepository) *ShopperProfileLoader {
	return &ShopperProfileLoader{userRepo: userRepo, orderRepo: orderRepo}
}

// Load 加载用户画像；withOrders 为 true 时汇总已付订单
func (l *ShopperProfileLoader) Load(userID uint, withOrders bool) (*ShopperProfile, error) {
	user, err := l.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrShopperNotFound
	}
	createdAt := user.CreatedAt
	profile := &ShopperProfile{
		UserID:    user.ID,
		CreatedAt: &createdAt,
		DOB:       user.DOB,
	}
	if user.CreatedAt.IsZero() {
		profile.CreatedAt = nil
	}
	if withOrders {
		if err := l.EnsureOrders(profile); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// EnsureOrders 按需补齐已付订单汇总，重复调用不会重复查询
func (l *ShopperProfileLoader) EnsureOrders(profile *ShopperProfile) error {
	if profile == nil || profile.ordersLoaded {
		return nil
	}
	orders, err := l.orderRepo.ListByUserAndStatus(profile.UserID, constants.OrderStatusPaid)
	if err != nil {
		return fmt.Errorf("load paid orders for user %d: %w", profile.UserID, err)
	}
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(order.TotalAmount.Decimal)
	}
	profile.PaidOrderCount = len(orders)
	profile.PaidOrderTotal = total
	profile.ordersLoaded = true
	return nil
}
