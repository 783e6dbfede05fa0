package constants

// 订单状态常量（外部订单系统写入，本服务只读）
const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusCanceled = "canceled"
	OrderStatusRefunded = "refunded"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 优惠券类型常量
const (
	VoucherTypeDefault    = "default"
	VoucherTypeNewUser    = "new-user"
	VoucherTypeBirthday   = "birthday"
	VoucherTypeFirstOrder = "first-order"
	VoucherTypeOrderCount = "order-count"
	VoucherTypeOrderValue = "order-value"
	VoucherTypeFlashSale  = "flash-sale"
)

// VoucherTypes 全部受支持的优惠券类型
var VoucherTypes = []string{
	VoucherTypeDefault,
	VoucherTypeNewUser,
	VoucherTypeBirthday,
	VoucherTypeFirstOrder,
	VoucherTypeOrderCount,
	VoucherTypeOrderValue,
	VoucherTypeFlashSale,
}

// 优惠方式常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 优惠券状态常量（读取时推导，不落库）
const (
	VoucherStatusNotStarted = "not-started"
	VoucherStatusActive     = "active"
	VoucherStatusExpired    = "expired"
	VoucherStatusExhausted  = "exhausted"
	VoucherStatusAvailable  = "available"
)

// 规则时间基准
const (
	TimeBasisUTC           = "utc"
	TimeBasisReferenceZone = "reference-zone"
)
