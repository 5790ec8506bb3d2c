package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/bankapp/ledger-core/internal/domain/port/core"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/handler"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	accountHandler *handler.AccountHandler,
) {
	// User routes; :userId is the caller identity resolved by the outer edge
	userRoutes := router.Group("/user")
	{
		// POST /user/:userId/accounts
		userRoutes.POST("/:userId/accounts", accountHandler.Open)

		// GET /user/:userId/accounts
		userRoutes.GET("/:userId/accounts", accountHandler.List)

		// GET /user/:userId/accounts/:number/balance
		userRoutes.GET("/:userId/accounts/:number/balance", ledgerHandler.Balance)

		// POST /user/:userId/deposit
		userRoutes.POST("/:userId/deposit", ledgerHandler.Deposit)

		// POST /user/:userId/withdraw
		userRoutes.POST("/:userId/withdraw", ledgerHandler.Withdraw)

		// POST /user/:userId/transfer
		userRoutes.POST("/:userId/transfer", ledgerHandler.Transfer)

		// GET /user/:userId/transactions
		userRoutes.GET("/:userId/transactions", ledgerHandler.History)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	// Apply middlewares in the correct order
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
