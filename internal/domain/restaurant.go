package domain

import "strings"

type MenuItem struct {
	ID           uint
	RestaurantID uint
	FoodName     string
	Price        float64
	Category     string
	Available    bool
}

type Restaurant struct {
	ID      uint
	Name    string
	Address *string
	Hotline *string
	Menu    []MenuItem
}

// PriceIndex builds a case-insensitive food-name -> unit-price lookup over the
// currently available menu. Built once per pricing pass so line items resolve
// in O(1) instead of one query each.
func (r *Restaurant) PriceIndex() map[string]float64 {
	index := make(map[string]float64, len(r.Menu))
	for _, item := range r.Menu {
		if !item.Available {
			continue
		}
		index[strings.ToLower(item.FoodName)] = item.Price
	}
	return index
}
