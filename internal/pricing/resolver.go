// Package pricing resolves authoritative unit prices for order line items
// from a restaurant menu snapshot. Prices always come from the menu, never
// from the client.
package pricing

import (
	"fmt"
	"strings"

	"deligo/internal/domain"
	"deligo/internal/dto"
	apperrors "deligo/internal/errors"
)

// Resolve prices every requested line item against the restaurant's current
// menu and returns the priced items plus the order subtotal. An item whose
// name is not on the menu (or is currently unavailable) fails the whole call;
// there is no partial success.
func Resolve(restaurant *domain.Restaurant, items []dto.CheckoutItem) ([]domain.OrderItem, float64, error) {
	index := restaurant.PriceIndex()

	resolved := make([]domain.OrderItem, 0, len(items))
	var subtotal float64

	for _, item := range items {
		unitPrice, ok := index[strings.ToLower(item.FoodName)]
		if !ok {
			return nil, 0, apperrors.NewNotFoundError(
				fmt.Sprintf("item %q is not on the restaurant menu", item.FoodName))
		}

		itemSubtotal := float64(item.Quantity) * unitPrice
		resolved = append(resolved, domain.OrderItem{
			FoodName:  item.FoodName,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  itemSubtotal,
			Status:    domain.OrderItemActive,
		})
		subtotal += itemSubtotal
	}

	return resolved, subtotal, nil
}
