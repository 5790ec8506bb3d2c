package dto

// OpenAccountRequest is the payload for opening a new account
type OpenAccountRequest struct {
	Number         string `json:"number" binding:"required"`
	Type           string `json:"type" binding:"required"`
	OpeningBalance string `json:"openingBalance"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	Number  string `json:"number"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// BalanceResponse is the response for the balance query
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}
