package auditservice

import (
	"context"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// LedgerRepository define o contrato de leitura do Ledger que o serviço espera.
type LedgerRepository interface {
	Find(ctx context.Context, filter domain.LedgerFilter) ([]domain.LedgerEntry, int, error)
	History(ctx context.Context, equipmentID string) ([]domain.LedgerEntry, error)
}

// EquipmentReader é a fatia do repositório de equipamentos usada na verificação.
type EquipmentReader interface {
	FindByID(ctx context.Context, id string) (domain.Equipment, error)
}

// AuditPage é a resposta paginada da consulta ao Ledger.
type AuditPage struct {
	Entries []domain.LedgerEntry `json:"entries"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
}

// VerificationResult compara o registro armazenado com o estado reconstruído
// pelo replay do Ledger desde quantidade zero.
type VerificationResult struct {
	EquipmentID    string                 `json:"equipment_id"`
	RecordQuantity int                    `json:"record_quantity"`
	LedgerQuantity int                    `json:"ledger_quantity"`
	RecordStatus   domain.EquipmentStatus `json:"record_status"`
	LedgerStatus   domain.EquipmentStatus `json:"ledger_status"`
	Entries        int                    `json:"entries"`
	Consistent     bool                   `json:"consistent"`
}

// Service expõe a consulta e a verificação do Ledger de Auditoria.
type Service struct {
	ledger    LedgerRepository
	equipment EquipmentReader
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Auditoria.
func NewService(ledger LedgerRepository, equipment EquipmentReader, logger logger.Logger) *Service {
	return &Service{ledger: ledger, equipment: equipment, logger: logger}
}

// GetAuditLog consulta o Ledger com filtros e paginação.
func (s *Service) GetAuditLog(ctx context.Context, filter domain.LedgerFilter) (AuditPage, error) {
	if filter.Action != "" && !filter.Action.IsValid() {
		return AuditPage{}, apperror.NewValidationError("Ação de Ledger desconhecida no filtro.")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return AuditPage{}, apperror.NewValidationError("Intervalo de datas invertido no filtro.")
	}

	entries, total, err := s.ledger.Find(ctx, filter)
	if err != nil {
		return AuditPage{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	return AuditPage{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}

// GetEquipmentHistory devolve o histórico completo de um equipamento em ordem
// cronológica crescente.
func (s *Service) GetEquipmentHistory(ctx context.Context, equipmentID string) ([]domain.LedgerEntry, error) {
	if equipmentID == "" {
		return nil, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.ledger.History(ctx, equipmentID)
}

// VerifyEquipment reconstrói quantidade e status pelo fold do Ledger e compara
// com o registro armazenado. Invariante central: o replay desde zero reproduz
// o registro exatamente.
func (s *Service) VerifyEquipment(ctx context.Context, equipmentID string) (VerificationResult, error) {
	if equipmentID == "" {
		return VerificationResult{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}

	eq, err := s.equipment.FindByID(ctx, equipmentID)
	if err != nil {
		return VerificationResult{}, err
	}

	entries, err := s.ledger.History(ctx, equipmentID)
	if err != nil {
		return VerificationResult{}, err
	}

	replay := domain.ReplayLedger(equipmentID, entries)
	result := VerificationResult{
		EquipmentID:    equipmentID,
		RecordQuantity: eq.Quantity,
		LedgerQuantity: replay.Quantity,
		RecordStatus:   eq.Status,
		LedgerStatus:   replay.Status,
		Entries:        replay.Entries,
		Consistent:     replay.Quantity == eq.Quantity && replay.Status == eq.Status,
	}

	if !result.Consistent {
		s.logger.Warn("Divergência entre Ledger e registro de equipamento.", map[string]interface{}{
			"equipment_id":    equipmentID,
			"record_quantity": eq.Quantity,
			"ledger_quantity": replay.Quantity,
		})
	}
	return result, nil
}
