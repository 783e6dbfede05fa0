package service

import (
	"errors"
	"testing"

	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"github.com/shopspring/decimal"
)

func TestComputeDiscountPercentageCapped(t *testing.T) {
	voucher := &models.Voucher{
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewMoneyFromInt(50),
		MaxDiscount:   models.NewMoneyFromInt(100000),
	}
	result, err := ComputeDiscount(voucher, decimal.NewFromInt(500000))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if result.DiscountAmount.String() != "100000.00" || result.FinalAmount.String() != "400000.00" {
		t.Fatalf("unexpected result: discount=%s final=%s", result.DiscountAmount, result.FinalAmount)
	}
}

func TestComputeDiscountPercentageUncapped(t *testing.T) {
	voucher := &models.Voucher{
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewMoneyFromInt(15),
	}
	result, err := ComputeDiscount(voucher, decimal.RequireFromString("199.99"))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if result.DiscountAmount.String() != "30.00" || result.FinalAmount.String() != "169.99" {
		t.Fatalf("unexpected result: discount=%s final=%s", result.DiscountAmount, result.FinalAmount)
	}
}

func TestComputeDiscountFixedClampsFinal(t *testing.T) {
	voucher := &models.Voucher{
		DiscountType:  constants.DiscountTypeFixed,
		DiscountValue: models.NewMoneyFromInt(200000),
	}
	result, err := ComputeDiscount(voucher, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if result.FinalAmount.String() != "0.00" {
		t.Fatalf("final should clamp to 0, got %s", result.FinalAmount)
	}
	if result.DiscountAmount.String() != "200000.00" {
		t.Fatalf("fixed discount is flat, got %s", result.DiscountAmount)
	}
}

func TestComputeDiscountRejectsBadInput(t *testing.T) {
	fixed := &models.Voucher{DiscountType: constants.DiscountTypeFixed, DiscountValue: models.NewMoneyFromInt(1)}
	if _, err := ComputeDiscount(fixed, decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidOrderAmount) {
		t.Fatalf("negative amount should fail, got %v", err)
	}
	unknown := &models.Voucher{DiscountType: "bogo", DiscountValue: models.NewMoneyFromInt(1)}
	if _, err := ComputeDiscount(unknown, decimal.NewFromInt(1)); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("unknown discount type should fail, got %v", err)
	}
}

func TestComputeDiscountFinalWithinBounds(t *testing.T) {
	vouchers := []*models.Voucher{
		{DiscountType: constants.DiscountTypePercentage, DiscountValue: models.NewMoneyFromInt(100)},
		{DiscountType: constants.DiscountTypePercentage, DiscountValue: models.NewMoneyFromInt(33), MaxDiscount: models.NewMoneyFromInt(50)},
		{DiscountType: constants.DiscountTypePercentage, DiscountValue: models.NewMoneyFromDecimal(decimal.RequireFromString("0.5"))},
		{DiscountType: constants.DiscountTypeFixed, DiscountValue: models.NewMoneyFromInt(1)},
		{DiscountType: constants.DiscountTypeFixed, DiscountValue: models.NewMoneyFromInt(1000000)},
	}
	amounts := []string{"0", "0.004", "0.005", "0.01", "0.015", "1", "49.99", "100", "12345.67", "999999999"}
	for _, voucher := range vouchers {
		for _, raw := range amounts {
			amount := decimal.RequireFromString(raw)
			result, err := ComputeDiscount(voucher, amount)
			if err != nil {
				t.Fatalf("compute failed for %s: %v", raw, err)
			}
			if result.FinalAmount.IsNegative() || result.FinalAmount.GreaterThan(amount) {
				t.Fatalf("final %s out of [0, %s] for %+v", result.FinalAmount, raw, voucher)
			}
		}
	}
}
