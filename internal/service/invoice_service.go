package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storecore/internal/model"
	"storecore/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InvoiceOptions struct {
	Padding     int
	MaxAttempts int
	Backoff     time.Duration
}

type InvoiceService interface {
	IssueForOrder(ctx context.Context, orderID uuid.UUID, userID string) (*model.Invoice, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	orderRepo   repository.OrderRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	sequences   SequenceService
	logger      *zap.Logger
	opts        InvoiceOptions
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	sequences SequenceService,
	logger *zap.Logger,
	opts InvoiceOptions,
) InvoiceService {
	if opts.Padding <= 0 {
		opts.Padding = 4
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		sequences:   sequences,
		logger:      logger.Named("invoice"),
		opts:        opts,
		now:         time.Now,
	}
}

// InvoiceSequence names the yearly invoice counter and its prefix.
func InvoiceSequence(year int) (name, prefix string) {
	return fmt.Sprintf("invoice_number_%d", year), fmt.Sprintf("INV-%d-", year)
}

func (s *invoiceService) IssueForOrder(ctx context.Context, orderID uuid.UUID, userID string) (invoice *model.Invoice, err error) {
	ctx, span := startSpan(ctx, "InvoiceService.IssueForOrder")
	span.SetAttributes(attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	err = retryOnContention(ctx, s.logger, "invoice number", s.opts.MaxAttempts, s.opts.Backoff, func() error {
		var issueErr error
		invoice, issueErr = s.issue(ctx, orderID, userID)
		return issueErr
	})
	if err != nil {
		if repository.IsContention(err) {
			return nil, fmt.Errorf("%w: %w", ErrSequenceContention, err)
		}
		return nil, err
	}

	s.logger.Info("invoice issued",
		zap.String("order_id", orderID.String()),
		zap.String("invoice_no", invoice.InvoiceNo),
	)
	return invoice, nil
}

func (s *invoiceService) issue(ctx context.Context, orderID uuid.UUID, userID string) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order", ID: orderID}
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order.IsDraft() || order.Status == model.OrderStatusCancelled {
			return fmt.Errorf("%w: %s is %s", ErrOrderNotConfirmed, orderID, order.Status)
		}

		if _, err := s.invoiceRepo.FindByOrderID(txCtx, orderID); err == nil {
			return ErrInvoiceExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		issuedAt := s.now().UTC()
		name, prefix := InvoiceSequence(issuedAt.Year())
		number, err := s.sequences.Next(txCtx, name, prefix, 0, s.opts.Padding)
		if err != nil {
			return err
		}

		invoice = &model.Invoice{
			InvoiceNo:     number,
			OrderID:       order.ID,
			Currency:      order.Currency,
			Subtotal:      order.Subtotal,
			ShippingTotal: order.ShippingTotal,
			TaxAmount:     order.TaxTotal,
			TotalAmount:   order.Total,
			IssuedAt:      issuedAt,
		}
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		entry, err := newAuditEntry(userID, model.ActionIssueInvoice, invoice.ID.String(), invoice.InvoiceNo, map[string]interface{}{
			"order_id": orderID.String(),
			"total":    invoice.TotalAmount.StringFixed(2),
		})
		if err != nil {
			return err
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	return invoice, err
}

func (s *invoiceService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice", ID: orderID}
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return invoice, nil
}
