package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Equipment representa um item físico de locação controlado por quantidade,
// status e condição. O campo Quantity NUNCA pode ficar negativo, e Quantity e
// Status só podem ser alterados pelo Coordenador de Mutações (ver MutationCoordinator):
// cada alteração gera exatamente uma entrada no Ledger de Auditoria, na mesma transação.
type Equipment struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     EquipmentCategory `json:"category"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	Quantity     int               `json:"quantity"`
	IsActive     bool              `json:"is_active"`
	Status       EquipmentStatus   `json:"status"`
	Condition    EquipmentCondition `json:"condition"`

	// Manutenção
	LastMaintenance     *time.Time `json:"last_maintenance,omitempty"`
	NextMaintenance     *time.Time `json:"next_maintenance,omitempty"`
	MaintenanceInterval int        `json:"maintenance_interval_days"` // em dias

	// Metadados opcionais
	SerialNumber string     `json:"serial_number,omitempty"`
	Barcode      string     `json:"barcode,omitempty"`
	Location     string     `json:"location,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`

	// Controle de Concorrência Otimista (OCC) e auditoria de linha
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"` // soft delete; nunca hard delete com pedidos abertos
}

// EquipmentStatus é o status operacional do equipamento (máquina de estados fechada).
type EquipmentStatus string

const (
	StatusAvailable   EquipmentStatus = "available"
	StatusInUse       EquipmentStatus = "in_use"
	StatusMaintenance EquipmentStatus = "maintenance"
	StatusDamaged     EquipmentStatus = "damaged"
	StatusRetired     EquipmentStatus = "retired"
	StatusLost        EquipmentStatus = "lost"
)

// IsValid indica se o valor pertence ao conjunto fechado de status.
func (s EquipmentStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusDamaged, StatusRetired, StatusLost:
		return true
	}
	return false
}

// validStatusTransitions define as transições legais da máquina de estados.
// retired e lost são estados terminais. Qualquer status pode ser forçado para
// retired ou lost por mutação administrativa direta.
var validStatusTransitions = map[EquipmentStatus][]EquipmentStatus{
	StatusAvailable:   {StatusInUse, StatusMaintenance, StatusDamaged, StatusRetired, StatusLost},
	StatusInUse:       {StatusAvailable, StatusDamaged, StatusRetired, StatusLost},
	StatusMaintenance: {StatusAvailable, StatusRetired, StatusLost},
	StatusDamaged:     {StatusAvailable, StatusRetired, StatusLost},
	StatusRetired:     {}, // terminal
	StatusLost:        {}, // terminal
}

// CanTransitionTo verifica se a transição de status é permitida pela máquina de estados.
func (s EquipmentStatus) CanTransitionTo(target EquipmentStatus) bool {
	allowed, exists := validStatusTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateStatusTransition retorna um erro descritivo se a transição for ilegal.
// Uma transição fora da máquina é rejeitada, nunca coagida silenciosamente.
func ValidateStatusTransition(from, to EquipmentStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("status desconhecido: %q", to)
	}
	if from == to {
		return fmt.Errorf("equipamento já está no status %q", to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("transição de status não permitida: %s -> %s", from, to)
	}
	return nil
}

// EquipmentCondition é a condição física do equipamento.
type EquipmentCondition string

const (
	ConditionNew       EquipmentCondition = "new"
	ConditionExcellent EquipmentCondition = "excellent"
	ConditionGood      EquipmentCondition = "good"
	ConditionFair      EquipmentCondition = "fair"
	ConditionPoor      EquipmentCondition = "poor"
)

// IsValid indica se o valor pertence ao conjunto fechado de condições.
func (c EquipmentCondition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ConditionForSeverity devolve a condição rebaixada após um dano grave:
// critical -> poor, major -> fair. Severidades menores não alteram a condição.
func ConditionForSeverity(severity DamageSeverity, current EquipmentCondition) EquipmentCondition {
	switch severity {
	case SeverityCritical:
		return ConditionPoor
	case SeverityMajor:
		return ConditionFair
	}
	return current
}

// UpgradeOneStep devolve a condição melhorada em um degrau após reparo
// (poor -> fair -> good). O teto para um item reparado é good.
func (c EquipmentCondition) UpgradeOneStep() EquipmentCondition {
	switch c {
	case ConditionPoor:
		return ConditionFair
	case ConditionFair:
		return ConditionGood
	}
	return c
}

// EquipmentCategory é o conjunto fechado de categorias de locação.
type EquipmentCategory string

const (
	CategoryCamping     EquipmentCategory = "camping"
	CategoryPhotography EquipmentCategory = "photography"
	CategoryAudio       EquipmentCategory = "audio"
	CategoryTools       EquipmentCategory = "tools"
	CategorySports      EquipmentCategory = "sports"
	CategoryOther       EquipmentCategory = "other"
)

// IsValid indica se o valor pertence ao conjunto fechado de categorias.
func (c EquipmentCategory) IsValid() bool {
	switch c {
	case CategoryCamping, CategoryPhotography, CategoryAudio, CategoryTools, CategorySports, CategoryOther:
		return true
	}
	return false
}

// EquipmentFilter define os parâmetros de busca e paginação de equipamentos.
type EquipmentFilter struct {
	Page       int
	Limit      int
	Name       string
	Category   EquipmentCategory
	Status     EquipmentStatus
	ActiveOnly bool
}
