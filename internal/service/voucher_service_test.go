package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var serviceTestNow = time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)

type voucherServiceFixture struct {
	db      *gorm.DB
	service *VoucherService
	admin   *VoucherAdminService
}

func setupVoucherServiceTest(t *testing.T) *voucherServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 单连接：并发事务在连接池上排队，与生产 sqlite 配置一致
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	voucherRepo := repository.NewVoucherRepository(db)
	usageRepo := repository.NewVoucherUsageRepository(db)
	loader := NewShopperProfileLoader(repository.NewUserRepository(db), repository.NewOrderRepository(db))
	svc := NewVoucherService(voucherRepo, usageRepo, loader, newTestEvaluator(t))
	svc.now = func() time.Time { return serviceTestNow }
	admin := NewVoucherAdminService(voucherRepo, usageRepo)
	admin.now = func() time.Time { return serviceTestNow }
	return &voucherServiceFixture{db: db, service: svc, admin: admin}
}

func (f *voucherServiceFixture) createUser(t *testing.T, id uint, createdAt time.Time) {
	t.Helper()
	user := models.User{
		ID:        id,
		Email:     fmt.Sprintf("learner_%d@example.com", id),
		Status:    constants.UserStatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func (f *voucherServiceFixture) createPaidOrder(t *testing.T, userID uint, total int64) {
	t.Helper()
	order := models.Order{UserID: userID, Status: constants.OrderStatusPaid, TotalAmount: models.NewMoneyFromInt(total)}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func (f *voucherServiceFixture) createVoucher(t *testing.T, mutate func(v *models.Voucher)) *models.Voucher {
	t.Helper()
	voucher := &models.Voucher{
		Code:          fmt.Sprintf("V%d", time.Now().UnixNano()),
		Title:         "test voucher",
		DiscountType:  constants.DiscountTypeFixed,
		DiscountValue: models.NewMoneyFromInt(50000),
		UsageLimit:    1,
		Type:          constants.VoucherTypeDefault,
	}
	if mutate != nil {
		mutate(voucher)
	}
	if err := f.db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func (f *voucherServiceFixture) reload(t *testing.T, id uint) *models.Voucher {
	t.Helper()
	var voucher models.Voucher
	if err := f.db.First(&voucher, id).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	return &voucher
}

func TestValidateVoucherQuote(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(-1, 0, 0))
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "HALF"
		v.DiscountType = constants.DiscountTypePercentage
		v.DiscountValue = models.NewMoneyFromInt(50)
		v.MaxDiscount = models.NewMoneyFromInt(100000)
	})

	quote, err := f.service.ValidateVoucher(ValidateVoucherInput{UserID: 1, Code: "half", OrderAmount: decimal.NewFromInt(500000)})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if quote.DiscountAmount.String() != "100000.00" || quote.FinalAmount.String() != "400000.00" {
		t.Fatalf("unexpected quote: %s / %s", quote.DiscountAmount, quote.FinalAmount)
	}

	var usageCount int64
	f.db.Model(&models.VoucherUsage{}).Count(&usageCount)
	if usageCount != 0 {
		t.Fatalf("validate must not write the ledger")
	}
}

func TestValidateVoucherFailures(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(0, 0, -10))
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "MIN"
		v.MinOrderValue = models.NewMoneyFromInt(300000)
	})
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "WELCOME"
		v.Type = constants.VoucherTypeNewUser
		v.MaxAccountAge = intPtr(7)
	})

	cases := []struct {
		name  string
		input ValidateVoucherInput
		want  error
	}{
		{"unknown code", ValidateVoucherInput{UserID: 1, Code: "NOPE", OrderAmount: decimal.NewFromInt(1)}, ErrVoucherNotFound},
		{"blank code", ValidateVoucherInput{UserID: 1, Code: "  ", OrderAmount: decimal.NewFromInt(1)}, ErrVoucherNotFound},
		{"negative amount", ValidateVoucherInput{UserID: 1, Code: "MIN", OrderAmount: decimal.NewFromInt(-1)}, ErrInvalidOrderAmount},
		{"below minimum", ValidateVoucherInput{UserID: 1, Code: "MIN", OrderAmount: decimal.NewFromInt(299999)}, ErrVoucherBelowMinimum},
		{"old account", ValidateVoucherInput{UserID: 1, Code: "WELCOME", OrderAmount: decimal.NewFromInt(1)}, ErrAccountTooOld},
		{"anonymous new-user", ValidateVoucherInput{Code: "WELCOME", OrderAmount: decimal.NewFromInt(1)}, ErrVoucherMissingUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.ValidateVoucher(tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
}

func TestApplyVoucherSingleUseSecondOrderAlreadyUsed(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(-1, 0, 0))
	voucher := f.createVoucher(t, func(v *models.Voucher) { v.UsageLimit = 1 })

	redemption, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 100, OrderAmount: decimal.NewFromInt(80000)})
	if err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if redemption.FinalAmount.String() != "30000.00" || redemption.Usage.OrderID != 100 {
		t.Fatalf("unexpected redemption: %+v", redemption)
	}

	_, err = f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 200, OrderAmount: decimal.NewFromInt(80000)})
	if !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("second apply want AlreadyUsed got %v", err)
	}

	if reloaded := f.reload(t, voucher.ID); reloaded.UsedCount != 0 {
		t.Fatalf("single-use vouchers must not touch used_count, got %d", reloaded.UsedCount)
	}

	if _, err := f.service.ValidateVoucher(ValidateVoucherInput{UserID: 1, Code: voucher.Code, OrderAmount: decimal.NewFromInt(1)}); !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("validate should preview AlreadyUsed, got %v", err)
	}
}

func TestApplyVoucherSharedPool(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(-1, 0, 0))
	f.createUser(t, 2, serviceTestNow.AddDate(-1, 0, 0))
	voucher := f.createVoucher(t, func(v *models.Voucher) { v.UsageLimit = 2 })

	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 1, OrderAmount: decimal.NewFromInt(100000)}); err != nil {
		t.Fatalf("apply 1 failed: %v", err)
	}
	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 1, OrderAmount: decimal.NewFromInt(100000)}); !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("same order twice want AlreadyUsed got %v", err)
	}
	if reloaded := f.reload(t, voucher.ID); reloaded.UsedCount != 1 {
		t.Fatalf("rejected apply must roll back, used_count=%d", reloaded.UsedCount)
	}

	redemption, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 2, VoucherID: voucher.ID, OrderID: 2, OrderAmount: decimal.NewFromInt(100000)})
	if err != nil {
		t.Fatalf("apply 2 failed: %v", err)
	}
	if redemption.Voucher.UsedCount != 2 {
		t.Fatalf("used count want 2 got %d", redemption.Voucher.UsedCount)
	}

	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 3, OrderAmount: decimal.NewFromInt(100000)}); !errors.Is(err, ErrVoucherExhausted) {
		t.Fatalf("full pool want Exhausted got %v", err)
	}
}

func TestApplyVoucherReevaluatesFreshRow(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(-1, 0, 0))
	voucher := f.createVoucher(t, nil)

	if _, err := f.service.ValidateVoucher(ValidateVoucherInput{UserID: 1, Code: voucher.Code, OrderAmount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	// 校验与核销之间券被下线
	if err := f.db.Model(&models.Voucher{}).Where("id = ?", voucher.ID).Update("end_date", serviceTestNow.Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire voucher failed: %v", err)
	}
	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: 1, OrderAmount: decimal.NewFromInt(1)}); !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("apply must re-check the window, got %v", err)
	}
}

func TestApplyVoucherInputErrors(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow)

	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: 999, OrderID: 1, OrderAmount: decimal.NewFromInt(1)}); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("want not found got %v", err)
	}
	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{VoucherID: 1, OrderID: 1, OrderAmount: decimal.NewFromInt(1)}); !errors.Is(err, ErrVoucherMissingUser) {
		t.Fatalf("want missing user got %v", err)
	}
	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: 1, OrderID: 1, OrderAmount: decimal.NewFromInt(-5)}); !errors.Is(err, ErrInvalidOrderAmount) {
		t.Fatalf("want invalid amount got %v", err)
	}
	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 42, VoucherID: 1, OrderID: 1, OrderAmount: decimal.NewFromInt(1)}); !errors.Is(err, ErrShopperNotFound) {
		t.Fatalf("want shopper not found got %v", err)
	}
}

func TestApplyVoucherConcurrentSingleUse(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(-1, 0, 0))
	voucher := f.createVoucher(t, func(v *models.Voucher) { v.UsageLimit = 1 })

	const attempts = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			_, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 1, VoucherID: voucher.ID, OrderID: orderID, OrderAmount: decimal.NewFromInt(100000)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrVoucherAlreadyUsed):
				duplicates++
			default:
				t.Errorf("unexpected apply error: %v", err)
			}
		}(uint(i + 1))
	}
	wg.Wait()

	if successes != 1 || duplicates != attempts-1 {
		t.Fatalf("want exactly one success, got success=%d duplicate=%d", successes, duplicates)
	}
	var ledger int64
	f.db.Model(&models.VoucherUsage{}).Where("voucher_id = ?", voucher.ID).Count(&ledger)
	if ledger != 1 {
		t.Fatalf("ledger should hold one entry, got %d", ledger)
	}
}

// sqlite 单连接下事务串行执行，真实并发争用由 postgres 集成测试覆盖；
// 这里额外断言守卫自增在库存用尽后拒绝写入
func TestApplyVoucherConcurrentSharedPoolNeverOverRedeems(t *testing.T) {
	f := setupVoucherServiceTest(t)
	const users = 20
	for id := uint(1); id <= users; id++ {
		f.createUser(t, id, serviceTestNow.AddDate(-1, 0, 0))
	}
	voucher := f.createVoucher(t, func(v *models.Voucher) { v.UsageLimit = 5 })

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for id := uint(1); id <= users; id++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: userID, VoucherID: voucher.ID, OrderID: userID, OrderAmount: decimal.NewFromInt(100000)})
			if err != nil && !errors.Is(err, ErrVoucherExhausted) {
				t.Errorf("unexpected apply error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	reloaded := f.reload(t, voucher.ID)
	if successes != 5 || reloaded.UsedCount != 5 {
		t.Fatalf("want 5 redemptions, got success=%d used_count=%d", successes, reloaded.UsedCount)
	}
	if reloaded.UsedCount > reloaded.UsageLimit {
		t.Fatalf("used_count %d exceeds usage_limit %d", reloaded.UsedCount, reloaded.UsageLimit)
	}

	// 调用方持有的是未满额时读到的旧副本，守卫仍以库中计数为准
	stale := *voucher
	if stale.UsedCount >= stale.UsageLimit {
		t.Fatalf("stale copy should look redeemable: used=%d limit=%d", stale.UsedCount, stale.UsageLimit)
	}
	if ok, err := repository.NewVoucherRepository(f.db).IncrementUsedCountGuarded(stale.ID); err != nil || ok {
		t.Fatalf("guarded increment at the limit must fail: ok=%v err=%v", ok, err)
	}
	if after := f.reload(t, voucher.ID); after.UsedCount != 5 {
		t.Fatalf("used_count changed after rejected increment: %d", after.UsedCount)
	}
}

func TestListAvailable(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createUser(t, 1, serviceTestNow.AddDate(0, 0, -10))
	f.createUser(t, 2, serviceTestNow.AddDate(0, 0, -2))

	scenarioA := f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "ALL"
		v.UsageLimit = 100
		v.UsedCount = 5
	})
	welcome := f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "WELCOME"
		v.Type = constants.VoucherTypeNewUser
		v.MaxAccountAge = intPtr(7)
	})
	firstOrder := f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "FIRST"
		v.Type = constants.VoucherTypeFirstOrder
		v.EndDate = timePtr(serviceTestNow.Add(48 * time.Hour))
	})
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "OLD"
		v.EndDate = timePtr(serviceTestNow.Add(-time.Hour))
	})
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "GONE"
		v.UsageLimit = 3
		v.UsedCount = 3
	})
	usedOnce := f.createVoucher(t, func(v *models.Voucher) { v.Code = "ONCE" })
	f.createPaidOrder(t, 1, 100000)

	if _, err := f.service.ApplyVoucher(ApplyVoucherInput{UserID: 2, VoucherID: usedOnce.ID, OrderID: 9, OrderAmount: decimal.NewFromInt(100000)}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	codes := func(items []AvailableVoucher) map[string]AvailableVoucher {
		result := make(map[string]AvailableVoucher, len(items))
		for _, item := range items {
			result[item.Code] = item
		}
		return result
	}

	anonymous, err := f.service.ListAvailable(0)
	if err != nil {
		t.Fatalf("list anonymous failed: %v", err)
	}
	got := codes(anonymous)
	if _, ok := got[scenarioA.Code]; !ok || len(got) != 2 {
		t.Fatalf("anonymous should see only default vouchers ALL and ONCE, got %v", got)
	}
	if got[scenarioA.Code].Status != constants.VoucherStatusAvailable || got[scenarioA.Code].StatusMessage == "" {
		t.Fatalf("items must carry available status and message: %+v", got[scenarioA.Code])
	}

	oldUser, err := f.service.ListAvailable(1)
	if err != nil {
		t.Fatalf("list user 1 failed: %v", err)
	}
	got = codes(oldUser)
	if _, ok := got[welcome.Code]; ok {
		t.Fatalf("10 day old account must not see new-user voucher")
	}
	if _, ok := got[firstOrder.Code]; ok {
		t.Fatalf("user with a paid order must not see first-order voucher")
	}

	newUser, err := f.service.ListAvailable(2)
	if err != nil {
		t.Fatalf("list user 2 failed: %v", err)
	}
	got = codes(newUser)
	for _, code := range []string{"ALL", "WELCOME", "FIRST"} {
		if _, ok := got[code]; !ok {
			t.Fatalf("new user should see %s, got %v", code, got)
		}
	}
	if _, ok := got["ONCE"]; ok {
		t.Fatalf("redeemed single-use voucher must be hidden")
	}
	for _, code := range []string{"OLD", "GONE"} {
		if _, ok := got[code]; ok {
			t.Fatalf("%s must be hidden", code)
		}
	}
}

type failingUserRepo struct{}

func (failingUserRepo) GetByID(uint) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestCollaboratorFailureIsNotBusinessReason(t *testing.T) {
	f := setupVoucherServiceTest(t)
	f.createVoucher(t, func(v *models.Voucher) {
		v.Code = "BDAY"
		v.Type = constants.VoucherTypeBirthday
	})
	f.service.profiles = NewShopperProfileLoader(failingUserRepo{}, repository.NewOrderRepository(f.db))

	_, err := f.service.ValidateVoucher(ValidateVoucherInput{UserID: 1, Code: "BDAY", OrderAmount: decimal.NewFromInt(1)})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, business := range []error{ErrVoucherNotFound, ErrVoucherConditionNotMet, ErrVoucherMissingUser, ErrShopperNotFound} {
		if errors.Is(err, business) {
			t.Fatalf("infrastructure failure must not map to %v", business)
		}
	}
}
