package service

import (
	"context"
	"errors"
	"fmt"

	"storecore/internal/model"
	"storecore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type ShippingQuoteResponse struct {
	MethodID uuid.UUID       `json:"method_id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Free     bool            `json:"free"`
}

// ShippingService loads methods and prices them. Pricing itself lives on
// model.ShippingMethod and never touches storage.
type ShippingService interface {
	CalculatePrice(ctx context.Context, methodID uuid.UUID, quote model.ShippingQuote) (decimal.Decimal, error)
	ListQuotes(ctx context.Context, quote model.ShippingQuote) ([]ShippingQuoteResponse, error)
}

type shippingService struct {
	methodRepo repository.ShippingMethodRepository
}

func NewShippingService(methodRepo repository.ShippingMethodRepository) ShippingService {
	return &shippingService{methodRepo: methodRepo}
}

func (s *shippingService) CalculatePrice(ctx context.Context, methodID uuid.UUID, quote model.ShippingQuote) (price decimal.Decimal, err error) {
	ctx, span := startSpan(ctx, "ShippingService.CalculatePrice")
	span.SetAttributes(attribute.String("shipping.method_id", methodID.String()))
	defer func() { endSpan(span, err) }()

	method, err := s.methodRepo.FindByIDWithRates(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &NotFoundError{Entity: "shipping_method", ID: methodID}
		}
		return decimal.Zero, fmt.Errorf("failed to load shipping method: %w", err)
	}
	return method.CalculatePrice(quote), nil
}

func (s *shippingService) ListQuotes(ctx context.Context, quote model.ShippingQuote) (quotes []ShippingQuoteResponse, err error) {
	ctx, span := startSpan(ctx, "ShippingService.ListQuotes")
	defer func() { endSpan(span, err) }()

	methods, err := s.methodRepo.ListActiveWithRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping methods: %w", err)
	}

	quotes = make([]ShippingQuoteResponse, 0, len(methods))
	for _, m := range methods {
		price := m.CalculatePrice(quote)
		quotes = append(quotes, ShippingQuoteResponse{
			MethodID: m.ID,
			Code:     m.Code,
			Name:     m.Name,
			Price:    price,
			Free:     price.IsZero(),
		})
	}
	return quotes, nil
}
