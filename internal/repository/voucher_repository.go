package repository

import (
	"errors"
	"strings"

	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherRepository 优惠券数据访问接口
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByIDForUpdate(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ListAll() ([]models.Voucher, error)
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	Delete(id uint) (bool, error)
	IncrementUsedCountGuarded(id uint) (bool, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Transaction 执行事务
func (r *GormVoucherRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// NormalizeVoucherCode 优惠码统一去空格并转大写
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByID 根据ID获取优惠券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDForUpdate 加行锁读取优惠券（sqlite 下锁子句被忽略）
func (r *GormVoucherRepository) GetByIDForUpdate(id uint) (*models.Voucher, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByCode 根据优惠码获取优惠券（忽略大小写）
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	normalized := NormalizeVoucherCode(code)
	if normalized == "" {
		return nil, nil
	}
	return r.first(r.db.Where("UPPER(code) = ?", normalized))
}

func (r *GormVoucherRepository) first(query *gorm.DB) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := query.First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// List 获取优惠券列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})

	if code := NormalizeVoucherCode(filter.Code); code != "" {
		query = query.Where("UPPER(code) = ?", code)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	query = query.Scopes(keywordScope(filter.Keyword, "code", "title"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vouchers []models.Voucher
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// ListAll 获取全部优惠券
func (r *GormVoucherRepository) ListAll() ([]models.Voucher, error) {
	var vouchers []models.Voucher
	if err := r.db.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Create 创建优惠券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	voucher.Code = NormalizeVoucherCode(voucher.Code)
	if err := r.db.Create(voucher).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateVoucherCode
		}
		return err
	}
	return nil
}

// Update 更新优惠券（不覆盖 used_count，该列只允许受保护的自增修改）
// 仅当库中 used_count 不超过新的 usage_limit 时写入，否则返回 ErrUsageLimitConflict
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	voucher.Code = NormalizeVoucherCode(voucher.Code)
	result := r.db.Model(voucher).
		Where("used_count <= ?", voucher.UsageLimit).
		Select("*").Omit("id", "used_count", "created_at").
		Updates(voucher)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrDuplicateVoucherCode
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageLimitConflict
	}
	return nil
}

// Delete 硬删除优惠券，返回是否存在
func (r *GormVoucherRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&models.Voucher{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementUsedCountGuarded 在未达上限时原子自增 used_count，返回是否成功
func (r *GormVoucherRepository) IncrementUsedCountGuarded(id uint) (bool, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND used_count < usage_limit", id).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
