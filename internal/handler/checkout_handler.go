package handler

import (
	"net/http"

	"storecore/internal/geo"
	"storecore/internal/model"
	"storecore/internal/service"
	"storecore/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AddressRequest struct {
	Country    string `json:"country" binding:"omitempty,iso_country"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	City       string `json:"city"`
}

func (a AddressRequest) toAddress() geo.Address {
	return geo.Address{Country: a.Country, State: a.State, PostalCode: a.PostalCode, City: a.City}
}

type TaxPreviewRequest struct {
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	ShippingAmount decimal.Decimal `json:"shipping_amount" swaggertype:"string" example:"5.00"`
	Address        AddressRequest  `json:"address"`
	ShopID         *uuid.UUID      `json:"shop_id" swaggertype:"string"`
}

type IncludedTaxPreviewRequest struct {
	PriceIncludingTax decimal.Decimal `json:"price_including_tax" swaggertype:"string" example:"120.00"`
	Address           AddressRequest  `json:"address"`
	ShopID            *uuid.UUID      `json:"shop_id" swaggertype:"string"`
}

type ShippingPreviewRequest struct {
	CartTotal   decimal.Decimal  `json:"cart_total" swaggertype:"string" example:"80.00"`
	Weight      *decimal.Decimal `json:"weight" swaggertype:"string" example:"3"`
	CountryCode string           `json:"country_code" binding:"omitempty,iso_country"`
	PostalCode  string           `json:"postal_code" binding:"max=20"`
}

func (r ShippingPreviewRequest) toQuote() model.ShippingQuote {
	return model.ShippingQuote{CartTotal: r.CartTotal, Weight: r.Weight, CountryCode: r.CountryCode, PostalCode: r.PostalCode}
}

type ShippingPriceResponse struct {
	MethodID string          `json:"method_id"`
	Price    decimal.Decimal `json:"price" swaggertype:"string"`
}

// CheckoutHandler serves the read-only pricing previews of the cart summary.
type CheckoutHandler struct {
	taxService      service.TaxService
	shippingService service.ShippingService
}

func NewCheckoutHandler(taxService service.TaxService, shippingService service.ShippingService) *CheckoutHandler {
	return &CheckoutHandler{taxService: taxService, shippingService: shippingService}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/checkout")
	{
		group.POST("/tax", h.CalculateTax)
		group.POST("/tax/included", h.CalculateIncludedTax)
		group.POST("/shipping", h.ListShippingQuotes)
		group.POST("/shipping/:methodId", h.CalculateShipping)
	}
}

// CalculateTax previews the tax due for a cart
// @Summary      Preview tax
// @Description  Resolves the tax zone for the address and applies its rates. No match yields a zero result.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        payload  body      TaxPreviewRequest  true  "Tax preview payload"
// @Success      200      {object}  response.Response{data=service.TaxResult}
// @Failure      400      {object}  response.Response
// @Router       /api/checkout/tax [post]
func (h *CheckoutHandler) CalculateTax(c *gin.Context) {
	var req TaxPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.Amount.IsNegative() || req.ShippingAmount.IsNegative() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Amounts must not be negative"))
		return
	}

	res, err := h.taxService.Calculate(c.Request.Context(), service.TaxCalculationRequest{
		Amount:         req.Amount,
		ShippingAmount: req.ShippingAmount,
		Address:        req.Address.toAddress(),
		ShopID:         req.ShopID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CalculateIncludedTax backs the tax out of a tax-inclusive price
// @Summary      Preview included tax
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        payload  body      IncludedTaxPreviewRequest  true  "Included tax payload"
// @Success      200      {object}  response.Response{data=service.IncludedTaxResult}
// @Failure      400      {object}  response.Response
// @Router       /api/checkout/tax/included [post]
func (h *CheckoutHandler) CalculateIncludedTax(c *gin.Context) {
	var req IncludedTaxPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.PriceIncludingTax.IsNegative() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Price must not be negative"))
		return
	}

	res, err := h.taxService.CalculateIncludedTax(c.Request.Context(), service.IncludedTaxRequest{
		PriceIncludingTax: req.PriceIncludingTax,
		Address:           req.Address.toAddress(),
		ShopID:            req.ShopID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CalculateShipping prices one shipping method for a cart
// @Summary      Preview shipping price
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        methodId  path      string                  true  "Shipping method ID"
// @Param        payload   body      ShippingPreviewRequest  true  "Shipping preview payload"
// @Success      200       {object}  response.Response{data=ShippingPriceResponse}
// @Failure      400       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/checkout/shipping/{methodId} [post]
func (h *CheckoutHandler) CalculateShipping(c *gin.Context) {
	methodID, ok := parseID(c, "methodId")
	if !ok {
		return
	}

	var req ShippingPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	price, err := h.shippingService.CalculatePrice(c.Request.Context(), methodID, req.toQuote())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ShippingPriceResponse{MethodID: methodID.String(), Price: price}))
}

// ListShippingQuotes prices every active shipping method for a cart
// @Summary      List shipping quotes
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        payload  body      ShippingPreviewRequest  true  "Shipping preview payload"
// @Success      200      {object}  response.Response{data=[]service.ShippingQuoteResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/checkout/shipping [post]
func (h *CheckoutHandler) ListShippingQuotes(c *gin.Context) {
	var req ShippingPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotes, err := h.shippingService.ListQuotes(c.Request.Context(), req.toQuote())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotes))
}
