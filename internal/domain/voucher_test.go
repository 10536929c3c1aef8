package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestVoucher_Discount_PercentWithCap(t *testing.T) {
	v := Voucher{Type: DiscountPercent, Value: 10, MaxDiscount: floatPtr(20000)}

	// 10% of 100,000 is below the cap
	assert.Equal(t, 10000.0, v.Discount(100000, 15000))

	// 10% of 300,000 hits the cap
	assert.Equal(t, 20000.0, v.Discount(300000, 15000))
}

func TestVoucher_Discount_PercentWithoutCap(t *testing.T) {
	v := Voucher{Type: DiscountPercent, Value: 25}

	assert.Equal(t, 50000.0, v.Discount(200000, 0))
}

func TestVoucher_Discount_FixedNeverExceedsSubtotal(t *testing.T) {
	v := Voucher{Type: DiscountFixed, Value: 50000}

	assert.Equal(t, 50000.0, v.Discount(120000, 15000))
	assert.Equal(t, 30000.0, v.Discount(30000, 15000))
}

func TestVoucher_Discount_Freeship(t *testing.T) {
	uncapped := Voucher{Type: DiscountFreeship, Value: 0}
	assert.Equal(t, 15000.0, uncapped.Discount(100000, 15000))

	capped := Voucher{Type: DiscountFreeship, Value: 0, MaxDiscount: floatPtr(10000)}
	assert.Equal(t, 10000.0, capped.Discount(100000, 15000))
}

func TestVoucher_Discount_NeverNegative(t *testing.T) {
	v := Voucher{Type: DiscountPercent, Value: -10}

	assert.Equal(t, 0.0, v.Discount(100000, 15000))
}

func TestVoucher_InWindow(t *testing.T) {
	now := time.Now()
	v := Voucher{StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}

	assert.True(t, v.InWindow(now))
	assert.True(t, v.InWindow(v.StartDate))
	assert.True(t, v.InWindow(v.EndDate))
	assert.False(t, v.InWindow(now.Add(-2*time.Hour)))
	assert.False(t, v.InWindow(now.Add(2*time.Hour)))
}

func TestVoucher_AppliesTo(t *testing.T) {
	platformWide := Voucher{}
	assert.True(t, platformWide.AppliesTo(1))
	assert.True(t, platformWide.AppliesTo(99))

	scoped := Voucher{RestaurantID: uintPtr(5)}
	assert.True(t, scoped.AppliesTo(5))
	assert.False(t, scoped.AppliesTo(6))
}
