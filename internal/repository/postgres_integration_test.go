//go:build integration
// +build integration

package repository

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	// 不开启 TranslateError，直接验证 pgconn 错误码识别
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{&models.VoucherUsage{}, &models.Voucher{}, &models.Order{}, &models.User{}}
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresLedgerUniqueViolation(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewVoucherRepository(db)
	usageRepo := NewVoucherUsageRepository(db)

	voucher := newRepoVoucher("PGONCE", 1)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	key := models.LedgerKeyFor(voucher, 1, 1)
	if err := usageRepo.Create(&models.VoucherUsage{VoucherID: voucher.ID, UserID: 1, OrderID: 1, LedgerKey: key}); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}
	err := usageRepo.Create(&models.VoucherUsage{VoucherID: voucher.ID, UserID: 1, OrderID: 2, LedgerKey: key})
	if !errors.Is(err, ErrDuplicateLedgerKey) {
		t.Fatalf("expected ErrDuplicateLedgerKey, got %v", err)
	}
}

func TestPostgresGuardedIncrementUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewVoucherRepository(db)

	voucher := newRepoVoucher("PGPOOL", 5)
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementUsedCountGuarded(voucher.ID)
			if err != nil {
				t.Errorf("increment failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 5 {
		t.Fatalf("want 5 successful increments got %d", success)
	}
	reloaded, _ := repo.GetByID(voucher.ID)
	if reloaded.UsedCount != 5 {
		t.Fatalf("used count want 5 got %d", reloaded.UsedCount)
	}
}

func TestPostgresKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewVoucherRepository(db)
	voucher := newRepoVoucher("PGSEARCH", 1)
	voucher.Title = "Birthday Special"
	voucher.Type = constants.VoucherTypeBirthday
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	rows, total, err := repo.List(VoucherListFilter{Keyword: "birthday"})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("ILIKE search mismatch: total=%d err=%v", total, err)
	}
}
