package dto

import "time"

type VoucherDTO struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Value          float64   `json:"value"`
	MaxDiscount    *float64  `json:"maxDiscount,omitempty"`
	MinOrderAmount *float64  `json:"minOrderAmount,omitempty"`
	RestaurantID   *uint     `json:"restaurantId,omitempty"`
	FirstOrderOnly bool      `json:"firstOrderOnly"`
	Active         bool      `json:"active"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Description    *string   `json:"description,omitempty"`
}

// AvailableVoucherDTO adds the first-order eligibility flag for the caller.
type AvailableVoucherDTO struct {
	VoucherDTO
	EligibleFirstOrder bool `json:"eligibleFirstOrder"`
}

type PreviewVoucherRequest struct {
	RestaurantID uint    `json:"restaurantId"`
	Subtotal     float64 `json:"subtotal"`
	ShippingFee  float64 `json:"shippingFee"`
	PromoID      *uint   `json:"promoId,omitempty"`
	Code         *string `json:"code,omitempty"`
}

type PreviewVoucherResponse struct {
	Voucher     VoucherDTO `json:"voucher"`
	Discount    float64    `json:"discount"`
	Subtotal    float64    `json:"subtotal"`
	ShippingFee float64    `json:"shippingFee"`
	Total       float64    `json:"total"`
}
