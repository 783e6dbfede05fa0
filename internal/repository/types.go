package repository

// VoucherListFilter 查询优惠券列表的过滤条件
type VoucherListFilter struct {
	Page     int
	PageSize int
	Code     string
	Type     string
	Keyword  string
}

// VoucherUsageListFilter 查询核销流水的过滤条件
type VoucherUsageListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	VoucherID uint
}
