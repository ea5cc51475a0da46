package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storecore/internal/metrics"
	"storecore/internal/model"
	"storecore/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultSequenceInitialValue int64 = 1000
	DefaultSequencePadding            = 8
)

type SequenceService interface {
	// Next issues the next value of name, creating the sequence at
	// initialValue when absent. The first value issued is initialValue+1.
	Next(ctx context.Context, name, prefix string, initialValue int64, padding int) (string, error)
	NextDefault(ctx context.Context, name, prefix string) (string, error)
	Current(ctx context.Context, name string) (int64, error)
	Reset(ctx context.Context, name string, value int64) error
}

type SequenceOptions struct {
	MaxAttempts int
	Backoff     time.Duration
}

type sequenceService struct {
	repo      repository.SequenceRepository
	txManager repository.TransactionManager
	logger    *zap.Logger
	opts      SequenceOptions
}

func NewSequenceService(
	repo repository.SequenceRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
	opts SequenceOptions,
) SequenceService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &sequenceService{
		repo:      repo,
		txManager: txManager,
		logger:    logger.Named("sequence"),
		opts:      opts,
	}
}

func (s *sequenceService) NextDefault(ctx context.Context, name, prefix string) (string, error) {
	return s.Next(ctx, name, prefix, DefaultSequenceInitialValue, DefaultSequencePadding)
}

func (s *sequenceService) Next(ctx context.Context, name, prefix string, initialValue int64, padding int) (value string, err error) {
	ctx, span := startSpan(ctx, "SequenceService.Next")
	span.SetAttributes(attribute.String("sequence.name", name))
	defer func() { endSpan(span, err) }()

	// A caller's transaction is poisoned by a failed statement, so only a
	// call that owns its transaction may retry.
	attempts := 1
	if !repository.InTx(ctx) {
		attempts = s.opts.MaxAttempts
	}

	err = retryOnContention(ctx, s.logger, "sequence "+name, attempts, s.opts.Backoff, func() error {
		var nextErr error
		value, nextErr = s.next(ctx, name, prefix, initialValue, padding)
		return nextErr
	})
	if err != nil {
		if repository.IsContention(err) {
			return "", fmt.Errorf("%w: %s: %w", ErrSequenceContention, name, err)
		}
		return "", err
	}

	metrics.SequenceIssued.WithLabelValues(name).Inc()
	return value, nil
}

func (s *sequenceService) next(ctx context.Context, name, prefix string, initialValue int64, padding int) (string, error) {
	var out string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.EnsureExists(txCtx, &model.Sequence{
			Name:         name,
			Prefix:       prefix,
			CurrentValue: initialValue,
			Padding:      padding,
		}); err != nil {
			return fmt.Errorf("failed to create sequence %s: %w", name, err)
		}

		if _, err := s.repo.FindByNameForUpdate(txCtx, name); err != nil {
			return fmt.Errorf("failed to lock sequence %s: %w", name, err)
		}
		if err := s.repo.Increment(txCtx, name); err != nil {
			return fmt.Errorf("failed to increment sequence %s: %w", name, err)
		}

		seq, err := s.repo.FindByName(txCtx, name)
		if err != nil {
			return fmt.Errorf("failed to read sequence %s: %w", name, err)
		}

		out = formatSequence(seq, prefix, padding)
		return nil
	})
	return out, err
}

// formatSequence prefers the stored prefix and the call-time padding.
func formatSequence(seq *model.Sequence, prefix string, padding int) string {
	p := seq.Prefix
	if p == "" {
		p = prefix
	}
	if padding <= 0 {
		padding = seq.Padding
	}
	return fmt.Sprintf("%s%0*d", p, padding, seq.CurrentValue)
}

func (s *sequenceService) Current(ctx context.Context, name string) (int64, error) {
	seq, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrSequenceNotFound, name)
		}
		return 0, fmt.Errorf("database error: %w", err)
	}
	return seq.CurrentValue, nil
}

func (s *sequenceService) Reset(ctx context.Context, name string, value int64) (err error) {
	ctx, span := startSpan(ctx, "SequenceService.Reset")
	span.SetAttributes(attribute.String("sequence.name", name), attribute.Int64("sequence.value", value))
	defer func() { endSpan(span, err) }()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.EnsureExists(txCtx, &model.Sequence{
			Name:         name,
			CurrentValue: value,
			Padding:      DefaultSequencePadding,
		}); err != nil {
			return fmt.Errorf("failed to create sequence %s: %w", name, err)
		}
		if _, err := s.repo.FindByNameForUpdate(txCtx, name); err != nil {
			return fmt.Errorf("failed to lock sequence %s: %w", name, err)
		}
		return s.repo.SetValue(txCtx, name, value)
	})
	if err != nil {
		return err
	}

	s.logger.Info("sequence reset", zap.String("sequence", name), zap.Int64("value", value))
	return nil
}
