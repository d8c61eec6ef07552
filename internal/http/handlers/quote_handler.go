// README: Quote handlers for create/get.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"benne/internal/modules/pricing"
	"benne/internal/modules/quote"
	"benne/internal/types"
)

type QuoteService interface {
	Create(ctx context.Context, req pricing.QuoteRequest) (*quote.Quote, error)
	Get(ctx context.Context, id types.ID) (*quote.Quote, error)
}

type QuoteHandler struct {
	quotes QuoteService
}

func NewQuoteHandler(svc QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: svc}
}

type createQuoteReq struct {
	ServiceID    string `json:"service_id"`
	WasteType    string `json:"waste_type"`
	Address      string `json:"address"`
	DurationDays int    `json:"duration_days"`
	DistanceKm   *int   `json:"distance_km"`
	DocumentFee  bool   `json:"document_fee"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	q, err := h.quotes.Create(c.Request.Context(), pricing.QuoteRequest{
		ServiceID:    req.ServiceID,
		WasteType:    req.WasteType,
		Address:      req.Address,
		DurationDays: req.DurationDays,
		DistanceKm:   req.DistanceKm,
		DocumentFee:  req.DocumentFee,
	})
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, q)
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid quote id")
		return
	}
	q, err := h.quotes.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
