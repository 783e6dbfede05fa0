package repository

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单只读访问接口
type OrderRepository interface {
	ListByUserAndStatus(userID uint, status string) ([]models.Order, error)
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// ListByUserAndStatus 获取用户指定状态的订单
func (r *GormOrderRepository) ListByUserAndStatus(userID uint, status string) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
