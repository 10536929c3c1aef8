package domain

import "time"

type DiscountType string

const (
	DiscountPercent  DiscountType = "Percent"
	DiscountFixed    DiscountType = "Fixed"
	DiscountFreeship DiscountType = "Freeship"
)

// Voucher is the promotion entity. RestaurantID nil means platform-wide.
type Voucher struct {
	ID             uint
	Code           string
	Name           string
	Type           DiscountType
	Value          float64
	MaxDiscount    *float64
	MinOrderAmount *float64
	RestaurantID   *uint
	FirstOrderOnly bool
	Active         bool
	StartDate      time.Time
	EndDate        time.Time
	Description    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InWindow reports whether now falls inside [StartDate, EndDate].
func (v *Voucher) InWindow(now time.Time) bool {
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

// AppliesTo reports whether the voucher covers the given restaurant.
func (v *Voucher) AppliesTo(restaurantID uint) bool {
	return v.RestaurantID == nil || *v.RestaurantID == restaurantID
}

// Discount computes the discount amount for the given order context.
// Percent discounts apply to the subtotal and respect MaxDiscount; fixed
// discounts never exceed the subtotal; freeship discounts never exceed the
// shipping fee. The result is never negative.
func (v *Voucher) Discount(subtotal, shippingFee float64) float64 {
	var discount float64
	switch v.Type {
	case DiscountPercent:
		discount = subtotal * v.Value / 100
		if v.MaxDiscount != nil && discount > *v.MaxDiscount {
			discount = *v.MaxDiscount
		}
	case DiscountFixed:
		discount = v.Value
		if discount > subtotal {
			discount = subtotal
		}
	case DiscountFreeship:
		cap := shippingFee
		if v.MaxDiscount != nil && *v.MaxDiscount < cap {
			cap = *v.MaxDiscount
		}
		discount = cap
	}
	if discount < 0 {
		return 0
	}
	return discount
}
