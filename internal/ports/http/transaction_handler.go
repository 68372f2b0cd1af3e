package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	txCmd "github.com/passiton/server/internal/app/command/transaction"
	txQuery "github.com/passiton/server/internal/app/query/transaction"
)

// TransactionHandler handles HTTP requests for the transaction lifecycle.
type TransactionHandler struct {
	confirmHandover *txCmd.ConfirmHandoverHandler
	confirmReturn   *txCmd.ConfirmReturnHandler
	complete        *txCmd.CompleteTransactionHandler
	reportDispute   *txCmd.ReportDisputeHandler
	getTransaction  *txQuery.GetTransactionHandler
	listMine        *txQuery.ListTransactionsHandler
	getHistory      *txQuery.GetHistoryHandler
	errorHandler    *ErrorHandler
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(
	confirmHandover *txCmd.ConfirmHandoverHandler,
	confirmReturn *txCmd.ConfirmReturnHandler,
	complete *txCmd.CompleteTransactionHandler,
	reportDispute *txCmd.ReportDisputeHandler,
	getTransaction *txQuery.GetTransactionHandler,
	listMine *txQuery.ListTransactionsHandler,
	getHistory *txQuery.GetHistoryHandler,
	errorHandler *ErrorHandler,
) *TransactionHandler {
	return &TransactionHandler{
		confirmHandover: confirmHandover,
		confirmReturn:   confirmReturn,
		complete:        complete,
		reportDispute:   reportDispute,
		getTransaction:  getTransaction,
		listMine:        listMine,
		getHistory:      getHistory,
		errorHandler:    errorHandler,
	}
}

// RegisterProtectedRoutes registers routes that need a resolved caller.
func (h *TransactionHandler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	txs := r.Group("/transactions")
	{
		txs.GET("", h.ListTransactions)
		txs.GET("/:id", h.GetTransaction)
		txs.GET("/:id/history", h.GetHistory)
		txs.POST("/:id/handover", h.ConfirmHandover)
		txs.POST("/:id/return", h.ConfirmReturn)
		txs.POST("/:id/complete", h.MarkAsCompleted)
		txs.POST("/:id/dispute", h.ReportDispute)
	}
}

// ListTransactionsRequest represents query parameters for listing transactions.
type ListTransactionsRequest struct {
	State    string `form:"state"`
	Role     string `form:"role"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListTransactions lists the caller's transactions.
//
//	@Summary		List my transactions
//	@Description	Transactions where the caller is owner or counterparty, newest first
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			state		query		string	false	"Filter by state"
//	@Param			role		query		string	false	"Filter by role (owner, counterparty)"
//	@Param			page		query		int		false	"Page number"
//	@Param			page_size	query		int		false	"Page size (max 100)"
//	@Success		200			{object}	Response{data=TransactionListResponse}
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}

	var req ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := h.listMine.Handle(c.Request.Context(), txQuery.ListTransactionsQuery{
		CallerID: userID,
		State:    req.State,
		Role:     req.Role,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	items := make([]*TransactionResponse, len(result.Transactions))
	for i, tx := range result.Transactions {
		items[i] = transactionToResponse(tx)
	}
	respondSuccess(c, TransactionListResponse{Transactions: items, Pagination: result.Page}, "")
}

// GetTransaction returns one transaction.
//
//	@Summary		Get transaction
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Transaction ID"
//	@Success		200	{object}	Response{data=TransactionResponse}
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse	"Caller is not a participant"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.getTransaction.Handle(c.Request.Context(), txQuery.GetTransactionQuery{
		TransactionID: id,
		CallerID:      userID,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, transactionToResponse(result.Transaction), "")
}

// GetHistory returns the audit trail of a transaction.
//
//	@Summary		Get transaction history
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Transaction ID"
//	@Success		200	{object}	Response{data=[]HistoryEntryResponse}
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/transactions/{id}/history [get]
func (h *TransactionHandler) GetHistory(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.getHistory.Handle(c.Request.Context(), txQuery.GetHistoryQuery{
		TransactionID: id,
		CallerID:      userID,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, historyToResponse(result.Entries), "")
}

// ConfirmHandover records the caller's handover confirmation.
//
//	@Summary		Confirm handover
//	@Description	Either party attests the resource changed hands. Repeating it is a no-op.
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id				path		string	true	"Transaction ID"
//	@Param			Idempotency-Key	header		string	false	"Replay key"
//	@Success		200				{object}	Response{data=TransactionResponse}
//	@Failure		403				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse	"invalid_state or conflict"
//	@Router			/transactions/{id}/handover [post]
func (h *TransactionHandler) ConfirmHandover(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.confirmHandover.Handle(c.Request.Context(), txCmd.ConfirmHandoverCommand{
		TransactionID: id,
		ActorID:       userID,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, transactionToResponse(result.Transaction), result.Message)
}

// ConfirmReturn records the caller's return confirmation.
//
//	@Summary		Confirm return
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id				path		string	true	"Transaction ID"
//	@Param			Idempotency-Key	header		string	false	"Replay key"
//	@Success		200				{object}	Response{data=TransactionResponse}
//	@Failure		403				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Router			/transactions/{id}/return [post]
func (h *TransactionHandler) ConfirmReturn(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.confirmReturn.Handle(c.Request.Context(), txCmd.ConfirmReturnCommand{
		TransactionID: id,
		ActorID:       userID,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, transactionToResponse(result.Transaction), result.Message)
}

// MarkAsCompleted closes a returned transaction.
//
//	@Summary		Complete transaction
//	@Tags			Transactions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id				path		string	true	"Transaction ID"
//	@Param			Idempotency-Key	header		string	false	"Replay key"
//	@Success		200				{object}	Response{data=TransactionResponse}
//	@Failure		403				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Router			/transactions/{id}/complete [post]
func (h *TransactionHandler) MarkAsCompleted(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.complete.Handle(c.Request.Context(), txCmd.CompleteTransactionCommand{
		TransactionID: id,
		ActorID:       userID,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, transactionToResponse(result.Transaction), result.Message)
}

// ReportDisputeRequest represents a request to dispute a transaction.
type ReportDisputeRequest struct {
	Reason string `json:"reason"`
}

// ReportDispute moves a transaction into the disputed state.
//
//	@Summary		Report dispute
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Transaction ID"
//	@Param			request	body		ReportDisputeRequest	true	"Dispute reason"
//	@Success		200		{object}	Response{data=TransactionResponse}
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/transactions/{id}/dispute [post]
func (h *TransactionHandler) ReportDispute(c *gin.Context) {
	userID := requireCaller(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ReportDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	result, err := h.reportDispute.Handle(c.Request.Context(), txCmd.ReportDisputeCommand{
		TransactionID: id,
		ActorID:       userID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	respondSuccess(c, transactionToResponse(result.Transaction), result.Message)
}
