package handler

import (
	"net/http"

	"storecore/internal/middleware"
	"storecore/internal/service"
	"storecore/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService     service.OrderService
	inventoryService service.InventoryService
	invoiceService   service.InvoiceService
	auth             *middleware.Auth
}

func NewOrderHandler(
	orderService service.OrderService,
	inventoryService service.InventoryService,
	invoiceService service.InvoiceService,
	auth *middleware.Auth,
) *OrderHandler {
	return &OrderHandler{
		orderService:     orderService,
		inventoryService: inventoryService,
		invoiceService:   invoiceService,
		auth:             auth,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("/:id/preview", h.PreviewOrder)

		staff := h.auth.RequireRole(middleware.RoleAdmin, middleware.RoleStaff)
		orders.GET("/:id", staff, h.GetOrder)
		orders.POST("/:id/confirm", staff, h.ConfirmOrder)
		orders.GET("/:id/inventory", staff, h.ListInventoryTransactions)
		orders.POST("/:id/invoice", staff, h.IssueInvoice)
		orders.GET("/:id/invoice", staff, h.GetInvoice)
	}
}

// GetOrder returns an order with its items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// PreviewOrder recomputes shipping and tax for a draft order
// @Summary      Preview order totals
// @Description  Recomputes shipping and tax for a draft order and stores the totals
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderPreview}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/preview [post]
func (h *OrderHandler) PreviewOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	preview, err := h.orderService.Preview(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// ConfirmOrder moves a draft order to confirmed
// @Summary      Confirm order
// @Description  Mints the order number, deducts stock once and marks the order confirmed. Repeating the call is safe.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Confirm(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListInventoryTransactions returns the stock ledger rows written for an order
// @Summary      Order stock ledger
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.InventoryTransaction}
// @Router       /api/orders/{id}/inventory [get]
func (h *OrderHandler) ListInventoryTransactions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	txs, err := h.inventoryService.ListOrderTransactions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, txs))
}

// IssueInvoice issues the invoice of a confirmed order
// @Summary      Issue invoice
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      201  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/invoice [post]
func (h *OrderHandler) IssueInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.IssueForOrder(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetInvoice returns the invoice of an order
// @Summary      Get invoice
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/invoice [get]
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
