package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVoucherRepositoryTest(t *testing.T) (*GormVoucherRepository, *GormVoucherUsageRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewVoucherRepository(db), NewVoucherUsageRepository(db), db
}

func newRepoVoucher(code string, usageLimit int) *models.Voucher {
	return &models.Voucher{
		Code:          code,
		Title:         "voucher " + code,
		DiscountType:  constants.DiscountTypeFixed,
		DiscountValue: models.NewMoneyFromInt(10000),
		UsageLimit:    usageLimit,
		Type:          constants.VoucherTypeDefault,
	}
}

func TestVoucherRepositoryGetByCodeIgnoresCase(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher(" summer10 ", 5)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if voucher.Code != "SUMMER10" {
		t.Fatalf("code should be stored upper-cased, got %s", voucher.Code)
	}

	got, err := repo.GetByCode("Summer10")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != voucher.ID {
		t.Fatalf("expected voucher %d, got %+v", voucher.ID, got)
	}

	missing, err := repo.GetByCode("nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing code, got %+v err=%v", missing, err)
	}
}

func TestVoucherRepositoryDuplicateCode(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	if err := repo.Create(newRepoVoucher("DUP", 1)); err != nil {
		t.Fatalf("create first voucher failed: %v", err)
	}
	err := repo.Create(newRepoVoucher("dup", 1))
	if !errors.Is(err, ErrDuplicateVoucherCode) {
		t.Fatalf("expected ErrDuplicateVoucherCode, got %v", err)
	}
}

func TestVoucherRepositoryIncrementUsedCountGuarded(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("POOL2", 2)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsedCountGuarded(voucher.ID)
		if err != nil || !ok {
			t.Fatalf("increment %d should succeed, ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := repo.IncrementUsedCountGuarded(voucher.ID)
	if err != nil {
		t.Fatalf("guarded increment failed: %v", err)
	}
	if ok {
		t.Fatalf("increment past usage limit must be rejected")
	}

	reloaded, err := repo.GetByID(voucher.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("used count want 2 got %d", reloaded.UsedCount)
	}
}

func TestVoucherRepositoryUpdateKeepsUsedCount(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("KEEP", 10)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if ok, err := repo.IncrementUsedCountGuarded(voucher.ID); err != nil || !ok {
		t.Fatalf("increment failed: ok=%v err=%v", ok, err)
	}

	stale := *voucher
	stale.UsedCount = 0
	stale.Title = "renamed"
	stale.MinOrderValue = models.Money{}
	if err := repo.Update(&stale); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded, _ := repo.GetByID(voucher.ID)
	if reloaded.Title != "renamed" {
		t.Fatalf("title not updated: %s", reloaded.Title)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("update must not overwrite used_count, got %d", reloaded.UsedCount)
	}
}

func TestVoucherRepositoryUpdateRejectsLimitBelowStoredUsedCount(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("SHRINK", 10)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if ok, err := repo.IncrementUsedCountGuarded(voucher.ID); err != nil || !ok {
			t.Fatalf("increment failed: ok=%v err=%v", ok, err)
		}
	}

	// 内存中的副本仍认为 used_count 为 0
	stale := *voucher
	stale.UsageLimit = 2
	if err := repo.Update(&stale); !errors.Is(err, ErrUsageLimitConflict) {
		t.Fatalf("want ErrUsageLimitConflict got %v", err)
	}
	reloaded, _ := repo.GetByID(voucher.ID)
	if reloaded.UsageLimit != 10 || reloaded.UsedCount != 3 {
		t.Fatalf("stored voucher changed: limit=%d used=%d", reloaded.UsageLimit, reloaded.UsedCount)
	}

	stale.UsageLimit = 3
	if err := repo.Update(&stale); err != nil {
		t.Fatalf("limit equal to used_count should be accepted: %v", err)
	}
}

func TestVoucherUsageRepositoryExistsByVoucher(t *testing.T) {
	repo, usageRepo, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("USED", 1)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if used, err := usageRepo.ExistsByVoucher(voucher.ID); err != nil || used {
		t.Fatalf("fresh voucher should have no usages: used=%v err=%v", used, err)
	}
	usage := &models.VoucherUsage{VoucherID: voucher.ID, UserID: 7, OrderID: 1, LedgerKey: models.LedgerKeyFor(voucher, 7, 1)}
	if err := usageRepo.Create(usage); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}
	if used, err := usageRepo.ExistsByVoucher(voucher.ID); err != nil || !used {
		t.Fatalf("want usage recorded: used=%v err=%v", used, err)
	}
}

func TestVoucherRepositoryListFilters(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	birthday := newRepoVoucher("BDAY", 1)
	birthday.Type = constants.VoucherTypeBirthday
	for _, v := range []*models.Voucher{newRepoVoucher("A1", 1), newRepoVoucher("A2", 1), birthday} {
		if err := repo.Create(v); err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
	}

	rows, total, err := repo.List(VoucherListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(rows))
	}

	rows, total, err = repo.List(VoucherListFilter{Type: constants.VoucherTypeBirthday})
	if err != nil || total != 1 || rows[0].Code != "BDAY" {
		t.Fatalf("type filter mismatch: total=%d rows=%+v err=%v", total, rows, err)
	}

	rows, total, err = repo.List(VoucherListFilter{Keyword: "a"})
	if err != nil || total != 3 {
		t.Fatalf("keyword should match code or title case-insensitively: total=%d err=%v", total, err)
	}
}

func TestVoucherRepositoryDelete(t *testing.T) {
	repo, _, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("GONE", 1)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	deleted, err := repo.Delete(voucher.ID)
	if err != nil || !deleted {
		t.Fatalf("delete failed: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.Delete(voucher.ID)
	if err != nil || deleted {
		t.Fatalf("second delete should report missing: deleted=%v err=%v", deleted, err)
	}
	got, err := repo.GetByID(voucher.ID)
	if err != nil || got != nil {
		t.Fatalf("voucher should be hard deleted, got %+v", got)
	}
}

func TestVoucherUsageRepositoryRejectsDuplicateLedgerKey(t *testing.T) {
	repo, usageRepo, _ := setupVoucherRepositoryTest(t)
	voucher := newRepoVoucher("ONCE", 1)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	first := &models.VoucherUsage{VoucherID: voucher.ID, UserID: 1, OrderID: 10, LedgerKey: models.LedgerKeyFor(voucher, 1, 10)}
	if err := usageRepo.Create(first); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}
	second := &models.VoucherUsage{VoucherID: voucher.ID, UserID: 1, OrderID: 11, LedgerKey: models.LedgerKeyFor(voucher, 1, 11)}
	if err := usageRepo.Create(second); !errors.Is(err, ErrDuplicateLedgerKey) {
		t.Fatalf("expected ErrDuplicateLedgerKey, got %v", err)
	}

	exists, err := usageRepo.ExistsByLedgerKey(models.LedgerKeyFor(voucher, 1, 99))
	if err != nil || !exists {
		t.Fatalf("single-use key should ignore order id: exists=%v err=%v", exists, err)
	}

	ids, err := usageRepo.ListVoucherIDsByUser(1)
	if err != nil || len(ids) != 1 || ids[0] != voucher.ID {
		t.Fatalf("unexpected voucher ids: %v err=%v", ids, err)
	}

	rows, total, err := usageRepo.ListByVoucher(VoucherUsageListFilter{VoucherID: voucher.ID, Page: 1, PageSize: 10})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("unexpected usages: total=%d rows=%d err=%v", total, len(rows), err)
	}
}

func TestOrderRepositoryListByUserAndStatus(t *testing.T) {
	_, _, db := setupVoucherRepositoryTest(t)
	orders := []models.Order{
		{UserID: 1, Status: constants.OrderStatusPaid, TotalAmount: models.NewMoneyFromInt(100)},
		{UserID: 1, Status: constants.OrderStatusPending, TotalAmount: models.NewMoneyFromInt(200)},
		{UserID: 2, Status: constants.OrderStatusPaid, TotalAmount: models.NewMoneyFromInt(300)},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("create orders failed: %v", err)
	}

	rows, err := NewOrderRepository(db).ListByUserAndStatus(1, constants.OrderStatusPaid)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalAmount.String() != "100.00" {
		t.Fatalf("unexpected orders: %+v", rows)
	}
}

func TestIsUniqueViolationFallback(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: voucher_usages.ledger_key")) {
		t.Fatalf("sqlite message should be detected")
	}
	if !IsUniqueViolation(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)) {
		t.Fatalf("gorm translated error should be detected")
	}
}
