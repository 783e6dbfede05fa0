package main

import (
	"errors"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/authz"
	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	log := logger.S()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		log.Fatalw("db_init_failed", "error", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("db_migrate_failed", "error", err)
	}

	now := time.Now().UTC()

	// 演示用户：新注册、老用户（今天生日）、已停用
	dob := time.Date(1995, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	users := []models.User{
		{Email: "newbie@edupro.local", DisplayName: "Newbie", Status: constants.UserStatusActive, CreatedAt: now.AddDate(0, 0, -2)},
		{Email: "veteran@edupro.local", DisplayName: "Veteran", Status: constants.UserStatusActive, DOB: &dob, CreatedAt: now.AddDate(-2, 0, 0)},
		{Email: "disabled@edupro.local", DisplayName: "Disabled", Status: constants.UserStatusDisabled, CreatedAt: now.AddDate(-1, 0, 0)},
	}
	for i := range users {
		if err := firstOrCreate(&users[i], "email = ?", users[i].Email); err != nil {
			log.Fatalw("seed_user_failed", "email", users[i].Email, "error", err)
		}
	}

	var paidCount int64
	models.DB.Model(&models.Order{}).Where("user_id = ? AND status = ?", users[1].ID, constants.OrderStatusPaid).Count(&paidCount)
	if paidCount == 0 {
		for i, amount := range []int64{120, 450, 80} {
			paidAt := now.AddDate(0, -i-1, 0)
			order := models.Order{
				UserID:      users[1].ID,
				Status:      constants.OrderStatusPaid,
				TotalAmount: models.NewMoneyFromInt(amount),
				PaidAt:      &paidAt,
			}
			if err := models.DB.Create(&order).Error; err != nil {
				log.Fatalw("seed_order_failed", "error", err)
			}
		}
	}
	pending := models.Order{UserID: users[0].ID, Status: constants.OrderStatusPending, TotalAmount: models.NewMoneyFromInt(200)}
	if err := firstOrCreate(&pending, "user_id = ? AND status = ?", pending.UserID, pending.Status); err != nil {
		log.Fatalw("seed_order_failed", "error", err)
	}

	adminSvc := service.NewVoucherAdminService(
		repository.NewVoucherRepository(models.DB),
		repository.NewVoucherUsageRepository(models.DB),
	)
	endDate := now.AddDate(0, 3, 0)
	money := func(v int64) models.Money { return models.NewMoneyFromInt(v) }
	inputs := []service.VoucherInput{
		{Code: "WELCOME10", Title: "Welcome 10%", Type: constants.VoucherTypeDefault, DiscountType: constants.DiscountTypePercentage, DiscountValue: money(10), MaxDiscount: money(50), UsageLimit: 100},
		{Code: "NEWBIE50", Title: "New learner", Type: constants.VoucherTypeNewUser, DiscountType: constants.DiscountTypeFixed, DiscountValue: money(50), UsageLimit: 1, MaxAccountAge: intPtr(7)},
		{Code: "HAPPYBDAY", Title: "Birthday gift", Type: constants.VoucherTypeBirthday, DiscountType: constants.DiscountTypePercentage, DiscountValue: money(20), UsageLimit: 1},
		{Code: "FIRSTCOURSE", Title: "First course", Type: constants.VoucherTypeFirstOrder, DiscountType: constants.DiscountTypeFixed, DiscountValue: money(30), UsageLimit: 1},
		{Code: "LOYAL3", Title: "Loyal learner", Type: constants.VoucherTypeOrderCount, DiscountType: constants.DiscountTypePercentage, DiscountValue: money(15), UsageLimit: 1, MinOrderCount: intPtr(3)},
		{Code: "BIGSPENDER", Title: "Big spender", Type: constants.VoucherTypeOrderValue, DiscountType: constants.DiscountTypeFixed, DiscountValue: money(100), UsageLimit: 1, MinOrderValue: models.NewMoneyFromDecimal(decimal.NewFromInt(500))},
		{Code: "FLASHHOUR", Title: "Flash hour", Type: constants.VoucherTypeFlashSale, DiscountType: constants.DiscountTypePercentage, DiscountValue: money(40), UsageLimit: 20, EndDate: &endDate},
	}
	for _, input := range inputs {
		voucher, err := adminSvc.Create(input)
		if errors.Is(err, service.ErrVoucherCodeExists) {
			log.Infow("seed_voucher_exists", "code", input.Code)
			continue
		}
		if err != nil {
			log.Fatalw("seed_voucher_failed", "code", input.Code, "error", err)
		}
		log.Infow("seed_voucher_created", "code", voucher.Code, "type", voucher.Type)
	}

	// 管理员：超级管理员与只读运营
	super := models.Admin{Username: "admin", IsSuper: true}
	viewer := models.Admin{Username: "voucher-viewer"}
	for _, admin := range []*models.Admin{&super, &viewer} {
		if err := firstOrCreate(admin, "username = ?", admin.Username); err != nil {
			log.Fatalw("seed_admin_failed", "username", admin.Username, "error", err)
		}
	}
	authzSvc, err := authz.NewService(models.DB)
	if err != nil {
		log.Fatalw("authz_init_failed", "error", err)
	}
	if err := authzSvc.BootstrapBuiltinRoles(); err != nil {
		log.Fatalw("authz_bootstrap_failed", "error", err)
	}
	if err := authzSvc.SetAdminRoles(viewer.ID, []string{"voucher_viewer"}); err != nil {
		log.Fatalw("authz_assign_failed", "error", err)
	}

	tokens := service.NewTokenService(cfg.JWT, cfg.UserJWT)
	for _, admin := range []*models.Admin{&super, &viewer} {
		token, expiresAt, err := tokens.IssueAdminToken(admin)
		if err != nil {
			log.Fatalw("issue_token_failed", "error", err)
		}
		log.Infow("seed_admin_token", "username", admin.Username, "token", token, "expires_at", expiresAt)
	}
	for i := range users[:2] {
		token, expiresAt, err := tokens.IssueUserToken(&users[i])
		if err != nil {
			log.Fatalw("issue_token_failed", "error", err)
		}
		log.Infow("seed_user_token", "email", users[i].Email, "token", token, "expires_at", expiresAt, "pending_order_id", pending.ID)
	}
	log.Infow("seed_done")
}

// firstOrCreate 按条件查找，不存在则创建
func firstOrCreate(dest interface{}, query string, args ...interface{}) error {
	err := models.DB.Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DB.Create(dest).Error
	}
	return err
}
