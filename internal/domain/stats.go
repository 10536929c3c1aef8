package domain

// ShipperStats is the per-shipper dashboard aggregate. TotalRevenue is the
// sum of shipping fees on completed orders.
type ShipperStats struct {
	TotalOrders     int
	PendingOrders   int
	ShippingOrders  int
	CompletedOrders int
	CancelledOrders int
	TotalRevenue    float64
}

type MonthRevenue struct {
	Month   int
	Orders  int
	Revenue float64
}

// Redemption is one (voucher, user) pair in the redemption ledger.
type Redemption struct {
	PromoID uint
	UserID  uint
}
