package maintenanceservice

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// MaintenanceRepository define o contrato de persistência de manutenções e danos.
type MaintenanceRepository interface {
	SaveMaintenance(ctx context.Context, m domain.MaintenanceRecord) (domain.MaintenanceRecord, error)
	FindMaintenanceByID(ctx context.Context, id string) (domain.MaintenanceRecord, error)
	UpdateMaintenance(ctx context.Context, m domain.MaintenanceRecord) (domain.MaintenanceRecord, error)
	FindMaintenanceByEquipment(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error)
	SaveDamage(ctx context.Context, d domain.DamageReport) (domain.DamageReport, error)
	FindDamageByID(ctx context.Context, id string) (domain.DamageReport, error)
	UpdateDamage(ctx context.Context, d domain.DamageReport) (domain.DamageReport, error)
	FindDamageByEquipment(ctx context.Context, equipmentID string) ([]domain.DamageReport, error)
}

// EquipmentMutator é a porta para o Coordenador de Mutações: toda mudança em
// equipamento causada por manutenção ou dano passa por aqui, nunca por UPDATE
// direto.
type EquipmentMutator interface {
	FindByID(ctx context.Context, id string) (domain.Equipment, error)
	ApplyMutation(ctx context.Context, mut domain.EquipmentMutation) (domain.MutationResult, error)
}

// ScheduleMaintenanceRequest é o payload de agendamento de manutenção.
type ScheduleMaintenanceRequest struct {
	EquipmentID  string                     `json:"equipment_id"`
	Type         domain.MaintenanceType     `json:"type"`
	Priority     domain.MaintenancePriority `json:"priority"`
	Description  string                     `json:"description"`
	ScheduledFor time.Time                  `json:"scheduled_for"`
	VendorID     string                     `json:"vendor_id,omitempty"`
}

// FileDamageRequest é o payload de abertura de laudo de dano.
type FileDamageRequest struct {
	EquipmentID string                `json:"equipment_id"`
	Severity    domain.DamageSeverity `json:"severity"`
	Description string                `json:"description"`
}

// Service é a camada de lógica de negócio de manutenção e dano.
type Service struct {
	repo      MaintenanceRepository
	equipment EquipmentMutator
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Manutenção.
func NewService(repo MaintenanceRepository, equipment EquipmentMutator, logger logger.Logger) *Service {
	return &Service{repo: repo, equipment: equipment, logger: logger}
}

// ScheduleMaintenance agenda uma manutenção. Agendamentos dentro da janela
// imediata movem o equipamento para maintenance desde já, quando a transição
// é permitida a partir do status atual.
func (s *Service) ScheduleMaintenance(ctx context.Context, req ScheduleMaintenanceRequest, actorID string) (domain.MaintenanceRecord, error) {
	if req.EquipmentID == "" {
		return domain.MaintenanceRecord{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	if !req.Type.IsValid() {
		return domain.MaintenanceRecord{}, apperror.NewValidationError(fmt.Sprintf("Tipo de manutenção desconhecido: %q", req.Type))
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if !req.Priority.IsValid() {
		return domain.MaintenanceRecord{}, apperror.NewValidationError(fmt.Sprintf("Prioridade desconhecida: %q", req.Priority))
	}
	if req.Description == "" {
		return domain.MaintenanceRecord{}, apperror.NewValidationError("A descrição da manutenção é obrigatória.")
	}
	if req.ScheduledFor.IsZero() {
		req.ScheduledFor = time.Now().UTC()
	}

	eq, err := s.equipment.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}

	record := domain.MaintenanceRecord{
		EquipmentID:  req.EquipmentID,
		Type:         req.Type,
		Status:       domain.MaintenanceScheduled,
		Priority:     req.Priority,
		Description:  req.Description,
		ScheduledFor: req.ScheduledFor,
		VendorID:     req.VendorID,
		CreatedBy:    actorID,
	}
	record, err = s.repo.SaveMaintenance(ctx, record)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}

	if time.Until(req.ScheduledFor) <= domain.ImmediateMaintenanceWindow &&
		eq.Status.CanTransitionTo(domain.StatusMaintenance) {
		newStatus := domain.StatusMaintenance
		_, err := s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID: req.EquipmentID,
			NewStatus:   &newStatus,
			Action:      domain.ActionMaintenance,
			Reason:      fmt.Sprintf("Manutenção %s agendada", req.Type),
			ReferenceID: record.ID,
			ActorID:     actorID,
		})
		if err != nil {
			return domain.MaintenanceRecord{}, err
		}
	}

	return record, nil
}

// GetMaintenance busca um registro de manutenção pelo ID.
func (s *Service) GetMaintenance(ctx context.Context, id string) (domain.MaintenanceRecord, error) {
	if id == "" {
		return domain.MaintenanceRecord{}, apperror.NewValidationError("O ID do registro é obrigatório.")
	}
	return s.repo.FindMaintenanceByID(ctx, id)
}

// ListMaintenanceByEquipment lista o histórico de manutenção de um equipamento.
func (s *Service) ListMaintenanceByEquipment(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error) {
	if equipmentID == "" {
		return nil, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.repo.FindMaintenanceByEquipment(ctx, equipmentID)
}

// StartMaintenance move o registro para in_progress e garante que o
// equipamento está em maintenance.
func (s *Service) StartMaintenance(ctx context.Context, id, actorID string) (domain.MaintenanceRecord, error) {
	record, err := s.repo.FindMaintenanceByID(ctx, id)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if !record.Status.CanTransitionTo(domain.MaintenanceInProgress) {
		return domain.MaintenanceRecord{}, apperror.NewInvariantError(fmt.Sprintf("Registro de manutenção em %q não pode iniciar.", record.Status))
	}

	eq, err := s.equipment.FindByID(ctx, record.EquipmentID)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if eq.Status != domain.StatusMaintenance && eq.Status.CanTransitionTo(domain.StatusMaintenance) {
		newStatus := domain.StatusMaintenance
		if _, err := s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID: record.EquipmentID,
			NewStatus:   &newStatus,
			Action:      domain.ActionMaintenance,
			Reason:      "Início de manutenção",
			ReferenceID: record.ID,
			ActorID:     actorID,
		}); err != nil {
			return domain.MaintenanceRecord{}, err
		}
	}

	now := time.Now().UTC()
	record.Status = domain.MaintenanceInProgress
	record.StartedAt = &now
	return s.repo.UpdateMaintenance(ctx, record)
}

// CompleteMaintenance encerra o registro e devolve o equipamento ao status
// available, carimbando last/next maintenance conforme o intervalo do cadastro.
func (s *Service) CompleteMaintenance(ctx context.Context, id string, cost decimal.Decimal, actorID string) (domain.MaintenanceRecord, error) {
	record, err := s.repo.FindMaintenanceByID(ctx, id)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if !record.Status.CanTransitionTo(domain.MaintenanceCompleted) {
		return domain.MaintenanceRecord{}, apperror.NewInvariantError(fmt.Sprintf("Registro de manutenção em %q não pode ser concluído.", record.Status))
	}
	if cost.LessThan(decimal.Zero) {
		return domain.MaintenanceRecord{}, apperror.NewValidationError("O custo da manutenção não pode ser negativo.")
	}

	eq, err := s.equipment.FindByID(ctx, record.EquipmentID)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if eq.Status == domain.StatusMaintenance {
		now := time.Now().UTC()
		next := now.AddDate(0, 0, eq.MaintenanceInterval)
		newStatus := domain.StatusAvailable
		if _, err := s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID:        record.EquipmentID,
			NewStatus:          &newStatus,
			Action:             domain.ActionMaintenance,
			Reason:             "Conclusão de manutenção",
			ReferenceID:        record.ID,
			ActorID:            actorID,
			SetLastMaintenance: &now,
			SetNextMaintenance: &next,
		}); err != nil {
			return domain.MaintenanceRecord{}, err
		}
	}

	now := time.Now().UTC()
	record.Status = domain.MaintenanceCompleted
	record.CompletedAt = &now
	record.Cost = cost
	return s.repo.UpdateMaintenance(ctx, record)
}

// CancelMaintenance cancela um registro agendado ou em andamento. Se o
// equipamento foi posto em maintenance por este registro, ele volta a available.
func (s *Service) CancelMaintenance(ctx context.Context, id, actorID string) (domain.MaintenanceRecord, error) {
	record, err := s.repo.FindMaintenanceByID(ctx, id)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if !record.Status.CanTransitionTo(domain.MaintenanceCancelled) {
		return domain.MaintenanceRecord{}, apperror.NewInvariantError(fmt.Sprintf("Registro de manutenção em %q não pode ser cancelado.", record.Status))
	}

	eq, err := s.equipment.FindByID(ctx, record.EquipmentID)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if eq.Status == domain.StatusMaintenance {
		newStatus := domain.StatusAvailable
		if _, err := s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID: record.EquipmentID,
			NewStatus:   &newStatus,
			Action:      domain.ActionMaintenance,
			Reason:      "Cancelamento de manutenção",
			ReferenceID: record.ID,
			ActorID:     actorID,
		}); err != nil {
			return domain.MaintenanceRecord{}, err
		}
	}

	record.Status = domain.MaintenanceCancelled
	return s.repo.UpdateMaintenance(ctx, record)
}

// FileDamageReport abre um laudo de dano. Severidades major e critical tiram o
// equipamento de serviço (status damaged) e rebaixam sua condição.
func (s *Service) FileDamageReport(ctx context.Context, req FileDamageRequest, actorID string) (domain.DamageReport, error) {
	if req.EquipmentID == "" {
		return domain.DamageReport{}, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	if !req.Severity.IsValid() {
		return domain.DamageReport{}, apperror.NewValidationError(fmt.Sprintf("Severidade desconhecida: %q", req.Severity))
	}
	if req.Description == "" {
		return domain.DamageReport{}, apperror.NewValidationError("A descrição do dano é obrigatória.")
	}

	eq, err := s.equipment.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return domain.DamageReport{}, err
	}

	report := domain.DamageReport{
		EquipmentID: req.EquipmentID,
		Severity:    req.Severity,
		Status:      domain.DamageReported,
		Description: req.Description,
		ReportedBy:  actorID,
		ReportedAt:  time.Now().UTC(),
	}
	report, err = s.repo.SaveDamage(ctx, report)
	if err != nil {
		return domain.DamageReport{}, err
	}

	if req.Severity.TakesEquipmentOutOfService() && eq.Status.CanTransitionTo(domain.StatusDamaged) {
		newStatus := domain.StatusDamaged
		newCondition := domain.ConditionForSeverity(req.Severity, eq.Condition)
		if _, err := s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID:  req.EquipmentID,
			NewStatus:    &newStatus,
			NewCondition: &newCondition,
			Action:       domain.ActionUpdate,
			Reason:       fmt.Sprintf("Laudo de dano %s", req.Severity),
			ReferenceID:  report.ID,
			ActorID:      actorID,
		}); err != nil {
			return domain.DamageReport{}, err
		}
	}

	return report, nil
}

// GetDamageReport busca um laudo de dano pelo ID.
func (s *Service) GetDamageReport(ctx context.Context, id string) (domain.DamageReport, error) {
	if id == "" {
		return domain.DamageReport{}, apperror.NewValidationError("O ID do laudo é obrigatório.")
	}
	return s.repo.FindDamageByID(ctx, id)
}

// ListDamageByEquipment lista os laudos de dano de um equipamento.
func (s *Service) ListDamageByEquipment(ctx context.Context, equipmentID string) ([]domain.DamageReport, error) {
	if equipmentID == "" {
		return nil, apperror.NewValidationError("O ID do equipamento é obrigatório.")
	}
	return s.repo.FindDamageByEquipment(ctx, equipmentID)
}

// AdvanceDamageStatus move o laudo na sua máquina de estados. As resoluções
// têm efeitos colaterais no equipamento, sempre através do Coordenador:
// repaired devolve a available e melhora a condição um degrau; replaced
// aposenta; written_off aposenta e zera o estoque registrado.
func (s *Service) AdvanceDamageStatus(ctx context.Context, id string, newStatus domain.DamageStatus, repairCost decimal.Decimal, actorID string) (domain.DamageReport, error) {
	report, err := s.repo.FindDamageByID(ctx, id)
	if err != nil {
		return domain.DamageReport{}, err
	}
	if err := domain.ValidateDamageTransition(report.Status, newStatus); err != nil {
		return domain.DamageReport{}, apperror.NewInvariantError(err.Error())
	}
	if repairCost.LessThan(decimal.Zero) {
		return domain.DamageReport{}, apperror.NewValidationError("O custo de reparo não pode ser negativo.")
	}

	if newStatus.IsResolution() {
		if err := s.applyResolution(ctx, report, newStatus, actorID); err != nil {
			return domain.DamageReport{}, err
		}
		now := time.Now().UTC()
		report.ResolvedAt = &now
	}

	report.Status = newStatus
	if !repairCost.IsZero() {
		report.RepairCost = repairCost
	}
	return s.repo.UpdateDamage(ctx, report)
}

// applyResolution aplica os efeitos colaterais da resolução do laudo no
// equipamento. Um equipamento que já saiu do status damaged por outro caminho
// não é tocado.
func (s *Service) applyResolution(ctx context.Context, report domain.DamageReport, resolution domain.DamageStatus, actorID string) error {
	eq, err := s.equipment.FindByID(ctx, report.EquipmentID)
	if err != nil {
		return err
	}
	if eq.Status != domain.StatusDamaged {
		return nil
	}

	switch resolution {
	case domain.DamageRepaired:
		newStatus := domain.StatusAvailable
		newCondition := eq.Condition.UpgradeOneStep()
		_, err = s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID:  report.EquipmentID,
			NewStatus:    &newStatus,
			NewCondition: &newCondition,
			Action:       domain.ActionMaintenance,
			Reason:       "Reparo concluído",
			ReferenceID:  report.ID,
			ActorID:      actorID,
		})
	case domain.DamageReplaced:
		newStatus := domain.StatusRetired
		_, err = s.equipment.ApplyMutation(ctx, domain.EquipmentMutation{
			EquipmentID: report.EquipmentID,
			NewStatus:   &newStatus,
			Action:      domain.ActionUpdate,
			Reason:      "Unidade substituída",
			ReferenceID: report.ID,
			ActorID:     actorID,
		})
	case domain.DamageWrittenOff:
		newStatus := domain.StatusRetired
		delta := -eq.Quantity
		mut := domain.EquipmentMutation{
			EquipmentID: report.EquipmentID,
			NewStatus:   &newStatus,
			Action:      domain.ActionStockOut,
			Reason:      "Baixa total por dano irreparável",
			ReferenceID: report.ID,
			ActorID:     actorID,
		}
		if delta != 0 {
			mut.QuantityDelta = &delta
		}
		_, err = s.equipment.ApplyMutation(ctx, mut)
	}
	return err
}
