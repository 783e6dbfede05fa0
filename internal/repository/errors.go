package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateLedgerKey 核销键冲突
	ErrDuplicateLedgerKey = errors.New("duplicate voucher ledger key")
	// ErrDuplicateVoucherCode 优惠码冲突
	ErrDuplicateVoucherCode = errors.New("duplicate voucher code")
	// ErrUsageLimitConflict 写入时 used_count 已超过新的 usage_limit，或记录已不存在
	ErrUsageLimitConflict = errors.New("usage limit below current used count")
)

const pgUniqueViolation = "23505"

// IsUniqueViolation 判断是否为唯一约束冲突，兼容 postgres 与 sqlite
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
