package service

import (
	"deligo/internal/domain"
	"deligo/internal/dto"
)

func toOrderResponse(o *domain.Order, shipper *domain.User) *dto.OrderResponse {
	items := make([]dto.OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemDTO{
			FoodName:  item.FoodName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Status:    item.Status,
		})
	}

	rejections := make([]dto.RejectionDTO, 0, len(o.Rejections))
	for _, rej := range o.Rejections {
		rejections = append(rejections, dto.RejectionDTO{
			ShipperID:  rej.ShipperID,
			Reason:     rej.Reason,
			RejectedAt: rej.RejectedAt,
		})
	}

	var method *string
	if o.PaymentMethod != nil {
		m := string(*o.PaymentMethod)
		method = &m
	}

	resp := &dto.OrderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		RestaurantID:       o.RestaurantID,
		ShipperID:          o.ShipperID,
		UserFullname:       o.UserFullname,
		UserPhone:          o.UserPhone,
		RestaurantName:     o.RestaurantName,
		RestaurantAddress:  o.RestaurantAddress,
		RestaurantHotline:  o.RestaurantHotline,
		Items:              items,
		Address:            o.Address,
		Note:               o.Note,
		Subtotal:           o.Subtotal,
		ShippingFee:        o.ShippingFee,
		Discount:           o.Discount,
		TotalAmount:        o.TotalAmount,
		PromoID:            o.PromoID,
		PaymentID:          o.PaymentID,
		PaymentMethod:      method,
		Status:             string(o.Status),
		IsReviewed:         o.IsReviewed,
		Refunded:           o.Refunded,
		RefundedAmount:     o.RefundedAmount,
		RefundedAt:         o.RefundedAt,
		CancelledBy:        o.CancelledBy,
		CancellationReason: o.CancellationReason,
		Rejections:         rejections,
		PickedAt:           o.PickedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if shipper != nil {
		resp.Shipper = &dto.ShipperInfoDTO{
			ShipperID: shipper.ID,
			Fullname:  shipper.Fullname,
			Phone:     shipper.Phone,
		}
	}

	return resp
}
