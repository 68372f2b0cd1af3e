package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	txCmd "github.com/passiton/server/internal/app/command/transaction"
	"github.com/passiton/server/internal/domain/transaction"
)

// BookingHandler receives accepted bookings from the booking service.
type BookingHandler struct {
	create       *txCmd.CreateTransactionHandler
	errorHandler *ErrorHandler
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(create *txCmd.CreateTransactionHandler, errorHandler *ErrorHandler) *BookingHandler {
	return &BookingHandler{create: create, errorHandler: errorHandler}
}

// RegisterInternalRoutes registers service-to-service routes.
func (h *BookingHandler) RegisterInternalRoutes(r *gin.RouterGroup) {
	r.POST("/transactions", h.CreateTransaction)
}

// CreateTransactionRequest is an accepted booking.
type CreateTransactionRequest struct {
	BookingID      string     `json:"booking_id" binding:"required"`
	ResourceID     string     `json:"resource_id" binding:"required"`
	ResourceType   string     `json:"resource_type"`
	OwnerID        string     `json:"owner_id" binding:"required"`
	CounterpartyID string     `json:"counterparty_id" binding:"required"`
	PriceCents     int64      `json:"price_cents"`
	Currency       string     `json:"currency"`
	StartAt        *time.Time `json:"start_at"`
	EndAt          *time.Time `json:"end_at"`
}

func (r *CreateTransactionRequest) toBooking() (transaction.Booking, string) {
	var b transaction.Booking
	ids := []struct {
		name string
		raw  string
		dst  *uuid.UUID
	}{
		{"booking_id", r.BookingID, &b.BookingID},
		{"resource_id", r.ResourceID, &b.ResourceID},
		{"owner_id", r.OwnerID, &b.OwnerID},
		{"counterparty_id", r.CounterpartyID, &b.CounterpartyID},
	}
	for _, id := range ids {
		parsed, err := uuid.Parse(strings.TrimSpace(id.raw))
		if err != nil {
			return b, "Invalid " + id.name
		}
		*id.dst = parsed
	}
	b.ResourceType = transaction.ResourceType(r.ResourceType)
	b.PriceCents = r.PriceCents
	b.Currency = r.Currency
	b.StartAt = r.StartAt
	b.EndAt = r.EndAt
	return b, ""
}

// CreateTransaction opens the transaction for an accepted booking.
// Replaying the same booking returns the existing transaction with 200.
//
//	@Summary		Open transaction for booking
//	@Tags			Internal
//	@Accept			json
//	@Produce		json
//	@Security		InternalKey
//	@Param			request	body		CreateTransactionRequest	true	"Accepted booking"
//	@Success		201		{object}	Response{data=TransactionResponse}
//	@Success		200		{object}	Response{data=TransactionResponse}	"Already opened"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/internal/v1/transactions [post]
func (h *BookingHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	booking, msg := req.toBooking()
	if msg != "" {
		respondError(c, http.StatusBadRequest, "validation_error", msg)
		return
	}

	result, err := h.create.Handle(c.Request.Context(), txCmd.CreateTransactionCommand{Booking: booking})
	if err != nil {
		h.errorHandler.HandleTransactionError(c, err)
		return
	}

	if result.Created {
		respondCreated(c, transactionToResponse(result.Transaction), result.Message)
		return
	}
	respondSuccess(c, transactionToResponse(result.Transaction), result.Message)
}
