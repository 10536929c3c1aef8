package dto

type TopUpRequest struct {
	Amount float64 `json:"amount"`
}

type WithdrawRequest struct {
	Amount float64 `json:"amount"`
}

type BalanceResponse struct {
	UserID  uint    `json:"userId"`
	Balance float64 `json:"balance"`
}
