package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bankapp/ledger-core/internal/domain/entity"
	domainerr "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/port/persistence"
	"github.com/bankapp/ledger-core/internal/domain/usecase/ledger"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/dto"
)

// LedgerHandler handles balance-mutation and history HTTP requests.
// The authenticated caller identity arrives as the userId path segment;
// authenticity is the gateway's concern, ownership is re-checked here.
type LedgerHandler struct {
	ledgerService *ledger.Service
	logger        coreport.Logger
}

// NewLedgerHandler creates a new ledger handler instance
func NewLedgerHandler(ledgerService *ledger.Service, logger coreport.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Deposit handles POST /user/:userId/deposit
func (h *LedgerHandler) Deposit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.ledgerService.Deposit(c.Request.Context(), userID, req.Account, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mutationResponse(result))
}

// Withdraw handles POST /user/:userId/withdraw
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.ledgerService.Withdraw(c.Request.Context(), userID, req.Account, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mutationResponse(result))
}

// Transfer handles POST /user/:userId/transfer
func (h *LedgerHandler) Transfer(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.ledgerService.Transfer(c.Request.Context(), userID, req.FromAccount, req.ToAccount, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mutationResponse(result))
}

// Balance handles GET /user/:userId/accounts/:number/balance
func (h *LedgerHandler) Balance(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	account, err := h.ledgerService.Balance(c.Request.Context(), userID, c.Param("number"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Account: account.Number,
		Balance: account.FormattedBalance(),
	})
}

// History handles GET /user/:userId/transactions with optional kind,
// from, to, minAmount and maxAmount query parameters
func (h *LedgerHandler) History(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	records, err := h.ledgerService.History(c.Request.Context(), userID, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	responses := make([]dto.TransactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.TransactionResponse{
			Reference:   record.ReferenceID,
			Kind:        string(record.Kind),
			FromAccount: record.FromAccount,
			ToAccount:   record.ToAccount,
			Amount:      record.Amount,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, responses)
}

// userID extracts and validates the caller identity from the path
func (h *LedgerHandler) userID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "Invalid user ID format",
		})
		return 0, false
	}
	return userID, true
}

// badRequest writes a validation failure response
func (h *LedgerHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
		Message: "Invalid request format: " + err.Error(),
	})
}

// writeError maps domain errors to HTTP responses. Validation and auth
// failures, the insufficient-funds business outcome, and store failures
// each get a distinct status so callers can choose retry behavior.
func (h *LedgerHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case domainerr.IsValidationError(err):
		status = http.StatusBadRequest
	case domainerr.IsUnauthorizedError(err):
		status = http.StatusForbidden
	case domainerr.IsAccountNotFoundError(err):
		status = http.StatusNotFound
	case domainerr.IsInsufficientFundsError(err):
		status = http.StatusConflict
	case domainerr.IsPersistenceError(err):
		status = http.StatusServiceUnavailable
		message = "Operation could not be completed due to a storage problem. Please try again."
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Ledger operation failed", map[string]any{
			"error":  err.Error(),
			"status": status,
			"path":   c.Request.URL.Path,
		})
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}

// mutationResponse converts a ledger result to its API shape
func mutationResponse(result *ledger.Result) dto.MutationResponse {
	return dto.MutationResponse{
		Reference:  result.Transaction.ReferenceID,
		Kind:       string(result.Transaction.Kind),
		Amount:     result.Transaction.Amount,
		NewBalance: result.NewBalance,
	}
}

// parseFilter builds a TransactionFilter from query parameters
func parseFilter(c *gin.Context) (persistence.TransactionFilter, error) {
	var filter persistence.TransactionFilter

	if kind := c.Query("kind"); kind != "" {
		filter.Kind = entity.TransactionKind(kind)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	if minAmount := c.Query("minAmount"); minAmount != "" {
		cents, err := entity.ParseAmount(minAmount)
		if err != nil {
			return filter, err
		}
		filter.MinAmount = &cents
	}
	if maxAmount := c.Query("maxAmount"); maxAmount != "" {
		cents, err := entity.ParseAmount(maxAmount)
		if err != nil {
			return filter, err
		}
		filter.MaxAmount = &cents
	}

	return filter, nil
}
