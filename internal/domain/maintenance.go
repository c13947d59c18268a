package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceStatus é o status do registro de manutenção.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

var validMaintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceScheduled:  {MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled},
	MaintenanceInProgress: {MaintenanceCompleted, MaintenanceCancelled},
	MaintenanceCompleted:  {}, // terminal
	MaintenanceCancelled:  {}, // terminal
}

// CanTransitionTo verifica se a transição do registro de manutenção é permitida.
func (s MaintenanceStatus) CanTransitionTo(target MaintenanceStatus) bool {
	for _, t := range validMaintenanceTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// MaintenanceType é o tipo de manutenção.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenanceInspection MaintenanceType = "inspection"
)

// IsValid indica se o valor pertence ao conjunto fechado de tipos de manutenção.
func (t MaintenanceType) IsValid() bool {
	switch t {
	case MaintenancePreventive, MaintenanceCorrective, MaintenanceInspection:
		return true
	}
	return false
}

// MaintenancePriority é a prioridade do registro de manutenção.
type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "low"
	PriorityMedium MaintenancePriority = "medium"
	PriorityHigh   MaintenancePriority = "high"
	PriorityUrgent MaintenancePriority = "urgent"
)

// IsValid indica se o valor pertence ao conjunto fechado de prioridades.
func (p MaintenancePriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ImmediateMaintenanceWindow é a janela em que um agendamento conta como "agora":
// agendar dentro dela já move o equipamento para o status maintenance.
const ImmediateMaintenanceWindow = 24 * time.Hour

// MaintenanceRecord é a máquina de estados estreita de manutenção. Ela nunca
// escreve campos do equipamento diretamente: toda transição de status do
// equipamento passa pelo contrato público do Coordenador de Mutações.
type MaintenanceRecord struct {
	ID           string              `json:"id"`
	EquipmentID  string              `json:"equipment_id"`
	Type         MaintenanceType     `json:"type"`
	Status       MaintenanceStatus   `json:"status"`
	Priority     MaintenancePriority `json:"priority"`
	Description  string              `json:"description"`
	ScheduledFor time.Time           `json:"scheduled_for"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	Cost         decimal.Decimal     `json:"cost"`
	VendorID     string              `json:"vendor_id,omitempty"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// DamageSeverity é a severidade de um laudo de dano.
type DamageSeverity string

const (
	SeverityMinor    DamageSeverity = "minor"
	SeverityModerate DamageSeverity = "moderate"
	SeverityMajor    DamageSeverity = "major"
	SeverityCritical DamageSeverity = "critical"
)

// IsValid indica se o valor pertence ao conjunto fechado de severidades.
func (s DamageSeverity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// TakesEquipmentOutOfService indica se a severidade retira o equipamento de
// circulação (available -> damaged) no momento do registro.
func (s DamageSeverity) TakesEquipmentOutOfService() bool {
	return s == SeverityMajor || s == SeverityCritical
}

// DamageStatus é o status de um laudo de dano.
type DamageStatus string

const (
	DamageReported     DamageStatus = "reported"
	DamageInspected    DamageStatus = "inspected"
	DamageRepairable   DamageStatus = "repairable"
	DamageUnrepairable DamageStatus = "unrepairable"
	DamageRepaired     DamageStatus = "repaired"
	DamageReplaced     DamageStatus = "replaced"
	DamageWrittenOff   DamageStatus = "written_off"
)

var validDamageTransitions = map[DamageStatus][]DamageStatus{
	DamageReported:     {DamageInspected, DamageRepairable, DamageUnrepairable},
	DamageInspected:    {DamageRepairable, DamageUnrepairable},
	DamageRepairable:   {DamageRepaired},
	DamageUnrepairable: {DamageReplaced, DamageWrittenOff},
	DamageRepaired:     {}, // terminal
	DamageReplaced:     {}, // terminal
	DamageWrittenOff:   {}, // terminal
}

// CanTransitionTo verifica se a transição do laudo de dano é permitida.
func (s DamageStatus) CanTransitionTo(target DamageStatus) bool {
	for _, t := range validDamageTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateDamageTransition retorna um erro descritivo se a transição for ilegal.
func ValidateDamageTransition(from, to DamageStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("transição de laudo não permitida: %s -> %s", from, to)
	}
	return nil
}

// IsResolution indica se o status encerra o laudo de dano.
func (s DamageStatus) IsResolution() bool {
	return s == DamageRepaired || s == DamageReplaced || s == DamageWrittenOff
}

// DamageReport é a máquina de estados estreita de laudos de dano. Assim como a
// manutenção, só muda o status do equipamento via Coordenador de Mutações.
type DamageReport struct {
	ID            string          `json:"id"`
	EquipmentID   string          `json:"equipment_id"`
	Severity      DamageSeverity  `json:"severity"`
	Status        DamageStatus    `json:"status"`
	Description   string          `json:"description"`
	MaintenanceID string          `json:"maintenance_id,omitempty"` // registro de manutenção vinculado
	RepairCost    decimal.Decimal `json:"repair_cost"`
	ReportedBy    string          `json:"reported_by"`
	ReportedAt    time.Time       `json:"reported_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
