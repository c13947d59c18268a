package reorderservice

import (
	"context"
	"errors"
	"fmt"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// ReorderRepository define o contrato de persistência das políticas de reposição.
type ReorderRepository interface {
	FindByEquipmentID(ctx context.Context, equipmentID string) (domain.ReorderPolicy, error)
	Upsert(ctx context.Context, policy domain.ReorderPolicy) (domain.ReorderPolicy, error)
	Delete(ctx context.Context, equipmentID string) error
	FindAll(ctx context.Context) (map[string]domain.ReorderPolicy, error)
}

// EquipmentReader valida a existência do equipamento antes do upsert.
type EquipmentReader interface {
	FindByID(ctx context.Context, id string) (domain.Equipment, error)
}

// SupplierReader valida o fornecedor preferido quando informado.
type SupplierReader interface {
	FindByID(ctx context.Context, id string) (domain.Supplier, error)
}

// Service é a camada de lógica de negócio das políticas de reposição.
type Service struct {
	repo      ReorderRepository
	equipment EquipmentReader
	suppliers SupplierReader
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Políticas.
func NewService(repo ReorderRepository, equipment EquipmentReader, suppliers SupplierReader, logger logger.Logger) *Service {
	return &Service{repo: repo, equipment: equipment, suppliers: suppliers, logger: logger}
}

// GetPolicy busca a política do equipamento. Quando ausente, materializa a
// política padrão (threshold 5, quantidade 10, auto off) de forma lazy:
// a ausência de política equivale aos padrões, nunca a um erro.
func (s *Service) GetPolicy(ctx context.Context, equipmentID string) (domain.ReorderPolicy, error) {
	if equipmentID == "" {
		return domain.ReorderPolicy{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}

	policy, err := s.repo.FindByEquipmentID(ctx, equipmentID)
	if err == nil {
		return policy, nil
	}

	var notFound *apperror.NotFoundError
	if !errors.As(err, &notFound) {
		return domain.ReorderPolicy{}, err
	}

	// Primeira consulta sem política: valida o equipamento e grava os padrões.
	if _, err := s.equipment.FindByID(ctx, equipmentID); err != nil {
		return domain.ReorderPolicy{}, err
	}

	s.logger.Debug("Materializando política de reposição padrão.", map[string]interface{}{"equipment_id": equipmentID})
	return s.repo.Upsert(ctx, domain.DefaultReorderPolicy(equipmentID))
}

// UpsertPolicy grava a política do equipamento (no máximo uma por equipamento).
func (s *Service) UpsertPolicy(ctx context.Context, policy domain.ReorderPolicy) (domain.ReorderPolicy, error) {
	if policy.EquipmentID == "" {
		return domain.ReorderPolicy{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	if policy.Threshold < 1 {
		return domain.ReorderPolicy{}, apperror.NewValidationError("O threshold deve ser no mínimo 1.")
	}
	if policy.ReorderQuantity < 1 {
		return domain.ReorderPolicy{}, apperror.NewValidationError("A quantidade de reposição deve ser no mínimo 1.")
	}
	if policy.AutoReorder && policy.PreferredSupplierID == "" {
		return domain.ReorderPolicy{}, apperror.NewValidationError("Auto-reposição exige um fornecedor preferido.")
	}

	if _, err := s.equipment.FindByID(ctx, policy.EquipmentID); err != nil {
		return domain.ReorderPolicy{}, err
	}

	if policy.PreferredSupplierID != "" {
		supplier, err := s.suppliers.FindByID(ctx, policy.PreferredSupplierID)
		if err != nil {
			return domain.ReorderPolicy{}, err
		}
		if !supplier.Active {
			return domain.ReorderPolicy{}, apperror.NewValidationError(
				fmt.Sprintf("O fornecedor %s está inativo.", supplier.ID))
		}
	}

	return s.repo.Upsert(ctx, policy)
}

// DeletePolicy remove os thresholds customizados do equipamento. Depois da
// remoção o equipamento volta a responder pelos padrões.
func (s *Service) DeletePolicy(ctx context.Context, equipmentID string) error {
	if equipmentID == "" {
		return apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.repo.Delete(ctx, equipmentID)
}

// ListPolicies devolve todas as políticas customizadas por equipamento.
func (s *Service) ListPolicies(ctx context.Context) (map[string]domain.ReorderPolicy, error) {
	return s.repo.FindAll(ctx)
}
