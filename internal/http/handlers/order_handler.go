// README: Order handlers for create/get/status/cancel/history.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"benne/internal/modules/order"
	"benne/internal/types"
)

type OrderService interface {
	Create(ctx context.Context, cmd order.CreateCommand) (*order.Order, error)
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	Transition(ctx context.Context, cmd order.TransitionCommand) (*order.Order, error)
	Cancel(ctx context.Context, cmd order.CancelCommand) (*order.Order, error)
	History(ctx context.Context, id types.ID) ([]order.Event, error)
}

type OrderHandler struct {
	order OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{order: svc}
}

type windowReq struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

type createOrderReq struct {
	QuoteID  string         `json:"quote_id"`
	Customer order.Customer `json:"customer"`
	Delivery windowReq      `json:"delivery"`
	Pickup   windowReq      `json:"pickup"`
}

type statusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func parseWindow(w windowReq) (order.Window, bool) {
	d, err := order.ParseDate(w.Date)
	if err != nil {
		return order.Window{}, false
	}
	return order.Window{Date: d, Slot: order.Slot(w.Slot)}, true
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.QuoteID) {
		writeError(c, http.StatusBadRequest, "invalid quote id")
		return
	}
	delivery, ok := parseWindow(req.Delivery)
	if !ok {
		writeError(c, http.StatusBadRequest, "delivery.date must be YYYY-MM-DD")
		return
	}
	pickup, ok := parseWindow(req.Pickup)
	if !ok {
		writeError(c, http.StatusBadRequest, "pickup.date must be YYYY-MM-DD")
		return
	}
	o, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		QuoteID:  types.ID(req.QuoteID),
		Customer: req.Customer,
		Delivery: delivery,
		Pickup:   pickup,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	to, ok := order.ParseStatus(req.Status)
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown status")
		return
	}
	o, err := h.order.Transition(c.Request.Context(), order.TransitionCommand{
		OrderID:   types.ID(id),
		To:        to,
		ActorType: order.ActorOperator,
		Reason:    req.Reason,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	o, err := h.order.Cancel(c.Request.Context(), order.CancelCommand{
		OrderID:   types.ID(id),
		ActorType: order.ActorCustomer,
		Reason:    req.Reason,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) History(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	evs, err := h.order.History(c.Request.Context(), types.ID(id))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"events": evs})
}
