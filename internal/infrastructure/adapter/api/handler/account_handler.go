package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerr "github.com/bankapp/ledger-core/internal/domain/error"
	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/domain/usecase/account"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/dto"
)

// AccountHandler handles account opening and listing HTTP requests
type AccountHandler struct {
	accountService *account.UseCase
	logger         coreport.Logger
}

// NewAccountHandler creates a new account handler instance
func NewAccountHandler(accountService *account.UseCase, logger coreport.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Open handles POST /user/:userId/accounts
func (h *AccountHandler) Open(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "Invalid user ID format",
		})
		return
	}

	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	openingBalance := req.OpeningBalance
	if openingBalance == "" {
		openingBalance = "0.00"
	}

	acct, err := h.accountService.Open(c.Request.Context(), userID, req.Number, req.Type, openingBalance)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case domainerr.IsValidationError(err):
			status = http.StatusBadRequest
		case domainerr.ErrorCode(err) == domainerr.CodeDuplicateAccount:
			status = http.StatusConflict
		case domainerr.IsPersistenceError(err):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.AccountResponse{
		Number:  acct.Number,
		Type:    string(acct.Type),
		Balance: acct.FormattedBalance(),
	})
}

// List handles GET /user/:userId/accounts
func (h *AccountHandler) List(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "Invalid user ID format",
		})
		return
	}

	accounts, err := h.accountService.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list accounts", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	responses := make([]dto.AccountResponse, 0, len(accounts))
	for _, acct := range accounts {
		responses = append(responses, dto.AccountResponse{
			Number:  acct.Number,
			Type:    string(acct.Type),
			Balance: acct.FormattedBalance(),
		})
	}

	c.JSON(http.StatusOK, responses)
}
