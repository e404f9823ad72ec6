package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/utils"
)

// DocumentNumberer turns per-tenant sequence values into document numbers
type DocumentNumberer struct {
	tenants  repository.TenantRepository
	prefixes map[string]string
	padding  int
}

// NewDocumentNumberer creates a numberer with the configured prefix for each sequence key
func NewDocumentNumberer(tenants repository.TenantRepository, prefixes map[string]string, padding int) *DocumentNumberer {
	return &DocumentNumberer{tenants: tenants, prefixes: prefixes, padding: padding}
}

// Next draws the next value of key inside the caller's transaction
func (n *DocumentNumberer) Next(ctx context.Context, sequences repository.SequenceRepository, tenantID uuid.UUID, key string) (string, error) {
	value, err := sequences.Next(ctx, tenantID, key)
	if err != nil {
		return "", err
	}

	prefix, err := n.prefix(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	return utils.FormatDocumentNumber(prefix, value, n.padding), nil
}

func (n *DocumentNumberer) prefix(ctx context.Context, tenantID uuid.UUID, key string) (string, error) {
	prefix := n.prefixes[key]
	if n.tenants == nil {
		return prefix, nil
	}

	tenant, err := n.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if tenant == nil {
		return prefix, nil
	}

	var override string
	switch key {
	case entity.SequenceInvoice:
		override = tenant.Settings.InvoicePrefix
	case entity.SequenceReturn:
		override = tenant.Settings.ReturnPrefix
	case entity.SequenceCreditNote:
		override = tenant.Settings.CreditNotePrefix
	}
	if override != "" {
		return override, nil
	}
	return prefix, nil
}
