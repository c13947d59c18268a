package equipmentservice

import (
	"context"
	"fmt"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/notifier"
)

// EquipmentRepository define o contrato que o Serviço de Equipamentos espera
// da camada de Persistência (o Coordenador de Mutações).
type EquipmentRepository interface {
	Save(ctx context.Context, eq domain.Equipment, actorID string) (domain.Equipment, error)
	FindByID(ctx context.Context, id string) (domain.Equipment, error)
	FindAll(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error)
	UpdateDetails(ctx context.Context, eq domain.Equipment) (domain.Equipment, error)
	SoftDelete(ctx context.Context, id string) error
	ApplyMutation(ctx context.Context, mut domain.EquipmentMutation) (domain.MutationResult, error)
	ApplyBatch(ctx context.Context, muts []domain.EquipmentMutation) (domain.BatchMutationResult, error)
}

// Intervalo de manutenção padrão quando o cadastro não informa (em dias).
const defaultMaintenanceInterval = 90

// Service é a camada de lógica de negócio de equipamentos: valida entradas e
// a máquina de estados ANTES de qualquer escrita e dispara notificações só
// DEPOIS do commit da unidade atômica.
type Service struct {
	repo     EquipmentRepository
	notifier notifier.Notifier
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Equipamentos.
func NewService(repo EquipmentRepository, notif notifier.Notifier, logger logger.Logger) *Service {
	return &Service{repo: repo, notifier: notif, logger: logger}
}

// CreateEquipment cadastra um novo equipamento (intake). A quantidade inicial
// positiva gera a entrada de stock_in no Ledger dentro da transação do Save.
func (s *Service) CreateEquipment(ctx context.Context, eq domain.Equipment, actorID string) (domain.Equipment, error) {
	if eq.Name == "" {
		return domain.Equipment{}, apperror.NewValidationError("O nome do equipamento é obrigatório.")
	}
	if !eq.Category.IsValid() {
		return domain.Equipment{}, apperror.NewValidationError(fmt.Sprintf("Categoria desconhecida: %q", eq.Category))
	}
	if eq.Quantity < 0 {
		return domain.Equipment{}, apperror.NewValidationError("A quantidade inicial não pode ser negativa.")
	}
	if eq.UnitPrice.IsNegative() {
		return domain.Equipment{}, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}

	// Defaults de cadastro
	eq.Status = domain.StatusAvailable
	if eq.Condition == "" {
		eq.Condition = domain.ConditionNew
	}
	if !eq.Condition.IsValid() {
		return domain.Equipment{}, apperror.NewValidationError(fmt.Sprintf("Condição desconhecida: %q", eq.Condition))
	}
	if eq.MaintenanceInterval <= 0 {
		eq.MaintenanceInterval = defaultMaintenanceInterval
	}
	eq.IsActive = true

	return s.repo.Save(ctx, eq, actorID)
}

// GetEquipment busca um equipamento pelo ID.
func (s *Service) GetEquipment(ctx context.Context, id string) (domain.Equipment, error) {
	if id == "" {
		return domain.Equipment{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListEquipment lista equipamentos com filtro e paginação.
func (s *Service) ListEquipment(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Categoria desconhecida: %q", filter.Category))
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status desconhecido: %q", filter.Status))
	}
	return s.repo.FindAll(ctx, filter)
}

// UpdateEquipmentDetails atualiza os campos não coordenados do cadastro.
// Quantity e Status são ignorados aqui por contrato: só mudam via Mutate.
func (s *Service) UpdateEquipmentDetails(ctx context.Context, eq domain.Equipment) (domain.Equipment, error) {
	if eq.ID == "" {
		return domain.Equipment{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	if eq.Name == "" {
		return domain.Equipment{}, apperror.NewValidationError("O nome do equipamento é obrigatório.")
	}
	if !eq.Category.IsValid() {
		return domain.Equipment{}, apperror.NewValidationError(fmt.Sprintf("Categoria desconhecida: %q", eq.Category))
	}
	if eq.UnitPrice.IsNegative() {
		return domain.Equipment{}, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}
	return s.repo.UpdateDetails(ctx, eq)
}

// DeleteEquipment faz o soft delete do equipamento. Equipamento referenciado
// por pedidos de compra abertos não pode ser removido (ConflictError).
func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.repo.SoftDelete(ctx, id)
}

// Mutate aplica uma mutação coordenada de quantidade/status/condição.
// Validações e a legalidade da transição acontecem antes de qualquer escrita;
// a notificação de esgotamento dispara fire-and-forget após o commit.
func (s *Service) Mutate(ctx context.Context, mut domain.EquipmentMutation) (domain.MutationResult, error) {
	if mut.EquipmentID == "" {
		return domain.MutationResult{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	if mut.Reason == "" {
		return domain.MutationResult{}, apperror.NewValidationError("O motivo da mutação é obrigatório.")
	}
	if !mut.HasChange() && mut.SetLastMaintenance == nil {
		return domain.MutationResult{}, apperror.NewValidationError("A mutação precisa alterar quantidade, status ou condição.")
	}
	if mut.Action != "" && !mut.Action.IsValid() {
		return domain.MutationResult{}, apperror.NewValidationError(fmt.Sprintf("Ação de Ledger desconhecida: %q", mut.Action))
	}

	result, err := s.repo.ApplyMutation(ctx, mut)
	if err != nil {
		return domain.MutationResult{}, err
	}

	// Saída de estoque que zera a quantidade dispara o alerta imediato.
	// Pós-commit, fire-and-forget: falha de notificação nunca vira falha de mutação.
	if result.Before.Quantity > 0 && result.After.Quantity == 0 {
		go s.notifyExhausted(result.After)
	}

	return result, nil
}

// BatchMutate aplica um lote de mutações com política de falha parcial:
// itens inválidos são reportados individualmente e o lote só aborta quando
// todos os itens falham.
func (s *Service) BatchMutate(ctx context.Context, muts []domain.EquipmentMutation, reason, actorID string) (domain.BatchMutationResult, error) {
	if len(muts) == 0 {
		return domain.BatchMutationResult{}, apperror.NewValidationError("O lote de mutações está vazio.")
	}
	if reason == "" {
		return domain.BatchMutationResult{}, apperror.NewValidationError("O motivo do lote é obrigatório.")
	}

	for i := range muts {
		if muts[i].Reason == "" {
			muts[i].Reason = reason
		}
		if muts[i].ActorID == "" {
			muts[i].ActorID = actorID
		}
	}

	return s.repo.ApplyBatch(ctx, muts)
}

// notifyExhausted envia o alerta de estoque zerado engolindo qualquer falha.
func (s *Service) notifyExhausted(eq domain.Equipment) {
	n := notifier.Notification{
		Kind:        string(domain.AlertOutOfStock),
		EquipmentID: eq.ID,
		Name:        eq.Name,
		Quantity:    eq.Quantity,
	}
	if err := s.notifier.Notify(context.Background(), n); err != nil {
		s.logger.Warn("Falha ao notificar estoque zerado (ignorada).", map[string]interface{}{
			"equipment_id": eq.ID,
			"error":        err.Error(),
		})
	}
}
