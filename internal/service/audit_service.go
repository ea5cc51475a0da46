package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storecore/internal/model"
	"storecore/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	Record(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error
	GetAuditLogs(ctx context.Context, filter model.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Record writes one audit row, joining the transaction carried by ctx.
func (s *auditService) Record(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
	entry, err := newAuditEntry(userID, action, entityID, entityName, details)
	if err != nil {
		return err
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func newAuditEntry(userID, action, entityID, entityName string, details interface{}) (*model.AuditLog, error) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit details: %w", err)
	}

	return &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}, nil
}

// GetAuditLogs returns one page of audit rows, newest first. Action matching
// is case-insensitive.
func (s *auditService) GetAuditLogs(ctx context.Context, filter model.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error) {
	filter.Action = strings.ToUpper(strings.TrimSpace(filter.Action))
	filter.EntityID = strings.TrimSpace(filter.EntityID)

	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
