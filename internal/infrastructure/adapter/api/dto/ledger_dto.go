package dto

// DepositRequest is the payload for a deposit
type DepositRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// WithdrawRequest is the payload for a withdrawal
type WithdrawRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// TransferRequest is the payload for a transfer
type TransferRequest struct {
	FromAccount string `json:"fromAccount" binding:"required"`
	ToAccount   string `json:"toAccount" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

// MutationResponse is the response for a successful ledger mutation
type MutationResponse struct {
	Reference  string `json:"reference"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	NewBalance string `json:"newBalance"`
}

// TransactionResponse represents one transaction-log record
type TransactionResponse struct {
	Reference   string `json:"reference"`
	Kind        string `json:"kind"`
	FromAccount string `json:"fromAccount,omitempty"`
	ToAccount   string `json:"toAccount,omitempty"`
	Amount      string `json:"amount"`
	CreatedAt   string `json:"createdAt"`
}
