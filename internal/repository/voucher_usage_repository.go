package repository

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"gorm.io/gorm"
)

// VoucherUsageRepository 核销流水数据访问接口
type VoucherUsageRepository interface {
	Create(usage *models.VoucherUsage) error
	ExistsByLedgerKey(key string) (bool, error)
	ExistsByVoucher(voucherID uint) (bool, error)
	ListVoucherIDsByUser(userID uint) ([]uint, error)
	ListByUser(filter VoucherUsageListFilter) ([]models.VoucherUsage, int64, error)
	ListByVoucher(filter VoucherUsageListFilter) ([]models.VoucherUsage, int64, error)
	WithTx(tx *gorm.DB) *GormVoucherUsageRepository
}

// GormVoucherUsageRepository GORM 实现
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewVoucherUsageRepository 创建核销流水仓库
func NewVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherUsageRepository) WithTx(tx *gorm.DB) *GormVoucherUsageRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherUsageRepository{db: tx}
}

// Create 写入核销流水，唯一键冲突返回 ErrDuplicateLedgerKey
func (r *GormVoucherUsageRepository) Create(usage *models.VoucherUsage) error {
	if err := r.db.Create(usage).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateLedgerKey
		}
		return err
	}
	return nil
}

// ExistsByLedgerKey 判断核销键是否已存在
func (r *GormVoucherUsageRepository) ExistsByLedgerKey(key string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.VoucherUsage{}).Where("ledger_key = ?", key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByVoucher 判断优惠券是否已有核销记录
func (r *GormVoucherUsageRepository) ExistsByVoucher(voucherID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.VoucherUsage{}).Where("voucher_id = ?", voucherID).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListVoucherIDsByUser 获取用户核销过的全部优惠券ID
func (r *GormVoucherUsageRepository) ListVoucherIDsByUser(userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.VoucherUsage{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("voucher_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByUser 获取用户核销流水
func (r *GormVoucherUsageRepository) ListByUser(filter VoucherUsageListFilter) ([]models.VoucherUsage, int64, error) {
	return r.list(r.db.Model(&models.VoucherUsage{}).Where("user_id = ?", filter.UserID), filter)
}

// ListByVoucher 获取优惠券核销流水
func (r *GormVoucherUsageRepository) ListByVoucher(filter VoucherUsageListFilter) ([]models.VoucherUsage, int64, error) {
	return r.list(r.db.Model(&models.VoucherUsage{}).Where("voucher_id = ?", filter.VoucherID), filter)
}

func (r *GormVoucherUsageRepository) list(query *gorm.DB, filter VoucherUsageListFilter) ([]models.VoucherUsage, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var usages []models.VoucherUsage
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}
